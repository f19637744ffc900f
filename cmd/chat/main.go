// Interactive terminal chat client, mostly useful for poking at a running
// broker by hand.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"roomchat/client"
	"roomchat/proto"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		url      string
		apiBase  string
		user     string
		room     string
		makeRoom bool
	)

	cmd := &cobra.Command{
		Use:           "roomchat",
		Short:         "Terminal chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(url, apiBase, user, room, makeRoom)
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "broker websocket endpoint")
	cmd.Flags().StringVar(&apiBase, "api", "http://localhost:8080", "broker HTTP base")
	cmd.Flags().StringVarP(&user, "user", "u", "", "username (required)")
	cmd.Flags().StringVarP(&room, "room", "r", "", "room id to join (default room when empty)")
	cmd.Flags().BoolVar(&makeRoom, "create-room", false, "allocate a fresh room and join it")

	return cmd
}

func run(url, apiBase, user, room string, makeRoom bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Options{
		URL:     url,
		APIBase: apiBase,
		Callbacks: client.Callbacks{
			OnMessage:   printEnvelope,
			OnOccupancy: func(n int) { fmt.Printf("* %d user(s) in the room\n", n) },
			OnError:     func(err error) { fmt.Printf("! %v\n", err) },
		},
	})

	if makeRoom {
		id, err := c.CreateRoom(ctx)
		if err != nil {
			return err
		}
		room = id
		fmt.Printf("* created room %s\n", room)
	}

	session, err := c.Connect(ctx, user, room)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	fmt.Printf("Connected as %s in room %s. Type messages, /quit to exit.\n", session.Username(), session.Room())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return nil
			}
			c.Send(line)
		}
	}
}

func printEnvelope(env proto.Envelope) {
	switch env.Type {
	case proto.TypeJoin:
		fmt.Printf("* %s joined\n", env.Sender)
	case proto.TypeLeave:
		fmt.Printf("* %s left\n", env.Sender)
	default:
		fmt.Printf("%s: %s\n", env.Sender, env.Content)
	}
}
