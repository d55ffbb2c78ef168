// Command kiosk-probe is a development client for exercising a running kiosk
// without a browser: it connects over websocket, optionally sends one
// utterance, and prints every JSON event the server emits (avatar frames are
// summarized, not dumped).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rashidlabs/go-kiosk/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "Kiosk websocket URL")
	say := flag.String("say", "", "Utterance to send after connecting")
	endAfter := flag.Duration("end-after", 0, "Send speech-ended this long after each reply (0 lets the watchdog fire)")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	}()

	if *say != "" {
		if err := sendEvent(conn, protocol.EventUtterance, protocol.UtteranceData{Text: *say}); err != nil {
			fmt.Fprintf(os.Stderr, "send utterance: %v\n", err)
			os.Exit(1)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			os.Exit(1)
		}

		env, err := protocol.ParseEnvelope(data)
		if err != nil {
			fmt.Printf("?? unparseable message (%d bytes)\n", len(data))
			continue
		}

		switch env.Event {
		case protocol.EventVideoFrame:
			fmt.Printf("<- %-18s (%d bytes)\n", env.Event, len(env.Data))
		case protocol.EventReplyAudioCue:
			fmt.Printf("<- %-18s %s\n", env.Event, string(env.Data))
			if *endAfter > 0 {
				go func() {
					time.Sleep(*endAfter)
					sendEvent(conn, protocol.EventSpeechEnded, nil)
				}()
			}
		default:
			fmt.Printf("<- %-18s %s\n", env.Event, string(env.Data))
		}
	}
}

func sendEvent(conn *websocket.Conn, event protocol.Event, data any) error {
	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	raw, err := env.Bytes()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}
