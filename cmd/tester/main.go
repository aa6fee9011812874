package main

import (
	"bufio"
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// tester is a terminal client: every stdin line is posted, every broadcast is printed.
func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if !cfg.Colours {
		color.Disable()
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.URL, nil)
	if err != nil {
		log.Fatalf("Unable to connect to %s: %v", cfg.URL, err)
	}
	defer conn.Close()
	color.New(color.BgBlack, color.FgGreen).Printf("Connected to %s as %s\n", cfg.URL, cfg.User)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				color.Red.Printf("Connection closed: %v\n", err)
				return
			}
			printFrame(data)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteMessage(websocket.CloseMessage, closing)
			<-done
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			frame, err := json.Marshal(chat.InboundMessage{Message: &line, User: &cfg.User})
			if err != nil {
				color.Red.Printf("Encoding failed: %v\n", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				color.Red.Printf("Send failed: %v\n", err)
				return
			}
		}
	}
}

func printFrame(data []byte) {
	var ack event.ErrorFrame
	if err := json.Unmarshal(data, &ack); err == nil && ack.Error.Code != "" {
		color.Red.Printf("[%s] %s\n", ack.Error.Code, ack.Error.Detail)
		return
	}
	var msg event.OutboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		fmt.Printf("%s\n", data)
		return
	}
	fmt.Printf("%s %s: %s\n", color.Gray.Render(msg.Timestamp), color.Cyan.Render(msg.User), msg.Message)
}
