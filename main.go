package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gridduel/server"
)

// GridDuel 入口：启动 TCP 对局服务与 HTTP 观察接口
func main() {
	var env string
	flag.StringVar(&env, "env", os.Getenv("GRIDDUEL_ENV"), "config profile under properties/, e.g. dev")
	flag.Parse()

	cfg, err := server.LoadConfig(env)
	if err != nil {
		panic(err)
	}
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	reg := server.NewRegistry()
	game := server.NewGameServer(reg)

	// 观察接口：/healthz /rooms /metrics /watch
	obs := server.NewObserver(reg)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: obs.Routes()}

	go func() {
		server.Log.Infof("observer listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("observer listen: %v", err)
		}
	}()
	go func() {
		if err := game.Listen(cfg.GameAddr); err != nil {
			server.Log.Fatalf("game listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）：停收连接 → 掐断会话 → 等所有对局循环收尾
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("shutting down...")

	_ = httpSrv.Close()
	game.Close()
	reg.Stop()
	server.Log.Info("bye")
}
