// Smoke check for a running broker: subscribe to a room, publish one chat
// message, and verify it comes back on the broadcast topic. Exits non-zero
// on any failure so it can gate deployments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"roomchat/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "smoke-tester", "sender name for the probe message")
	room := flag.String("room", "smoke", "room id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	broadcast := proto.BroadcastTopic(*room).String()
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSubscribe, Topic: broadcast}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	body, err := proto.EncodeEnvelope(proto.NewChat(*user, *text))
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypePublish, Topic: broadcast, Body: string(body)}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if outbound.Type == proto.OutboundTypeError {
			return fmt.Errorf("broker error: %+v", outbound.Error)
		}
		if outbound.Type != proto.OutboundTypeMessage || outbound.Topic != broadcast {
			continue
		}
		env, err := proto.DecodeEnvelope([]byte(outbound.Body))
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if env.Sender == *user && env.Content == *text {
			fmt.Println("ws_smoke: ok")
			return nil
		}
	}
}
