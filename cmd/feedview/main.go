// Command feedview prints the pose feed of a running game, one line per
// sample.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/milk9111/locationgame/config"
	"github.com/milk9111/locationgame/feed"
	"github.com/milk9111/locationgame/logger"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", config.Default().Feed.Addr, "address of the game's pose feed")
	raw := flag.Bool("raw", false, "print the JSON messages unchanged")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logCfg := config.Default().Logging
	if *debug {
		logCfg.Level = "debug"
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := view(ctx, *addr, *raw, lg); err != nil {
		lg.Fatal("feed viewer stopped", zap.Error(err))
	}
}

func view(ctx context.Context, addr string, raw bool, lg *zap.Logger) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/pose"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()
	lg.Info("connected", zap.String("url", u.String()))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if raw {
			fmt.Println(string(msg))
			continue
		}

		var p feed.Pose
		if err := json.Unmarshal(msg, &p); err != nil {
			lg.Warn("bad pose message", zap.ByteString("message", msg), zap.Error(err))
			continue
		}
		fmt.Println(formatPose(p))
	}
}

func formatPose(p feed.Pose) string {
	line := fmt.Sprintf("%-12s %-9s x=%7.2f y=%5.2f z=%7.2f yaw=%6.1f pitch=%5.1f",
		p.Scene, p.State, p.X, p.Y, p.Z, mgl64.RadToDeg(p.Yaw), mgl64.RadToDeg(p.Pitch))
	if len(p.Inventory) > 0 {
		line += " basket=" + strings.Join(p.Inventory, ",")
	}
	return line
}
