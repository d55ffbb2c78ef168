package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt defines the kiosk assistant's persona and the two answer
// modes: program recommendation and rules lookup grounded in retrieved
// passages only.
const SystemPrompt = `أنت "راشد" مساعد كشك ذكي في الهاكثون.
- تحدث بالعربية الفصحى بلطف وباختصار.
- لديك نمطان:
  (1) توصية مبادرة: استخرج 3 سمات على الأقل من وصف المستخدم (القطاع، المرحلة، نوع الدعم) واسأل سؤالاً واحداً إذا كانت المعلومات ناقصة. ثم رشّح مبادرة واحدة مع سبب موجز واختم بدعوة لزيارة "بوصلة منشآت".
  (2) لوائح الهاكثون: أجب بدقة استناداً إلى المقاطع المسترجعة فقط. إن لم توجد إجابة صريحة، قل ذلك ووجّه المستخدم للمرشدين.
- اجعل الإجابات مخصصة حسب سؤال المستخدم؛ لا تكرر ردوداً ثابتة.`

// IntentPrompt asks the model to answer with a single word deciding whether
// the user wants a program recommendation or a rules lookup.
func IntentPrompt(userText string) string {
	return fmt.Sprintf(`نص المستخدم: """%s"""
أجب بكلمة واحدة فقط (بدون شرح):
- اكتب: مبادرات  → إذا كان يريد ترشيح/برنامج/تمويل/حاضنة تناسب فكرته
- اكتب: لوائح   → إذا كان يسأل عن القواعد/الشروط/التحكيم/المسموح/الممنوع
`, userText)
}

// IsRulesIntent interprets the intent classification output.
func IsRulesIntent(output string) bool {
	return strings.Contains(output, "لوائح")
}

// AttrsPrompt asks the model to extract idea attributes as simple key lines.
func AttrsPrompt(userText string) string {
	return fmt.Sprintf(`استخرج من وصف المستخدم هذه المفاتيح إن وجدت: sector, stage, need, team_size, city.
أعدها كسطور مثل:
sector: ...
stage: ...
need: ...
(إذا نقصت معلومات، اسأل سؤالاً واحداً واضحاً لجمعها)
نص المستخدم: %s`, userText)
}

// RulesPrompt builds the grounded rules answer prompt. passages must be the
// retrieved rule lines only; the model is told to refuse when the answer is
// not explicit in them.
func RulesPrompt(userText, passages string) string {
	return fmt.Sprintf(`سؤال المستخدم: %s

مقاطع اللوائح:
%s

أجب بجملة أو جملتين دقيقتين وبالعربية. استخدم المقاطع فقط؛ إن لم تكن الإجابة صريحة، قل ذلك ووجّه السؤال للمرشدين.`, userText, passages)
}

// ProgramPrompt builds the recommendation prompt from the top retrieved
// program, the user's utterance, and the attributes extracted so far.
func ProgramPrompt(userText, attrsText, brief string, score int) string {
	return fmt.Sprintf(`وصف المستخدم/احتياجه الحالي: %s

سمات مستخرجة (قد تكون ناقصة):
%s

أقرب مبادرة (درجة تقريبية %d):
%s

اكتب ردًا موجزًا بالعربية:
- رشّح المبادرة بالاسم واذكر سببًا مناسبًا لفكرة المستخدم (سطرين).
- اختم: "للمزيد من التفاصيل زور موقع بوصلة الممكنات."
`, userText, attrsText, score, brief)
}
