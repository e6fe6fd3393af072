package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleberrangel/delivery-board/internal/cache"
	"github.com/cleberrangel/delivery-board/internal/client"
	"github.com/cleberrangel/delivery-board/internal/config"
	"github.com/cleberrangel/delivery-board/internal/handler"
	"github.com/cleberrangel/delivery-board/internal/logger"
	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/cleberrangel/delivery-board/internal/service"
	"github.com/cleberrangel/delivery-board/internal/websocket"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// shutdownTimeout tempo máximo para drenar requisições em andamento
const shutdownTimeout = 15 * time.Second

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	logger.InitAudit()
	metrics.Init()
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("deliveries_url", cfg.DeliveriesURL).
		Int("visible_count", cfg.VisibleCount).
		Dur("refresh_interval", cfg.RefreshInterval).
		Str("timezone", cfg.Timezone).
		Msg("Delivery board iniciando")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hub de atualizações ao vivo
	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Memo de buscas
	memo := cache.NewCache(cfg.SearchCacheTTL)

	// Board: dono da lista durante a vida do processo
	fetcher := client.NewDeliveryClient(cfg.DeliveriesURL, cfg.FetchTimeout, cfg.FetchRatePerMinute)
	formatter := service.NewFormatter(cfg.Location(), cfg.DateLayout)
	board := service.NewBoard(fetcher, service.NewNormalizer(formatter), service.BoardOptions{
		VisibleCount:    cfg.VisibleCount,
		RefreshInterval: cfg.RefreshInterval,
		Memo:            memo,
		OnUpdate:        hub.NotifyUpdate,
	})
	if err := board.Mount(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Erro ao montar o board")
	}

	// Configura modo do Gin
	gin.SetMode(cfg.GinMode)

	r := handler.NewRouter(handler.Deps{
		Board:    board,
		Exporter: service.NewExcelExporter(),
		Hub:      hub,
		Version:  Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Sinal recebido, encerrando")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Erro ao iniciar servidor")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Erro ao encerrar servidor")
	}

	board.Close()
	stopHub()
	<-hub.Done()
	memo.Stop()

	log.Info().Msg("Delivery board encerrado")
}
