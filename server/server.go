package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"BuggyFM/config"
	"BuggyFM/core/assistant"
	"BuggyFM/core/auth"
	"BuggyFM/core/catalog"
	"BuggyFM/core/library"
	"BuggyFM/core/local"
	"BuggyFM/core/player"
	"BuggyFM/db"
	"BuggyFM/logger"
	"BuggyFM/repository"
	"BuggyFM/storage"
	"BuggyFM/store"
)

// remotePollInterval is how often the remote-session adapter asks the
// platform for playback progress.
const remotePollInterval = time.Second

// Start brings up every backend dependency and serves the API until an
// interrupt or termination signal arrives.
func Start(cfg *config.Config) {
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()
	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize object storage", logger.ErrorField(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Remote session and catalogs.
	session := auth.NewSession(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyAccountsURL)
	youtube := catalog.NewYouTubeClient(cfg.YouTubeAPIURL, cfg.YouTubeAPIKeys)
	spotify := catalog.NewSpotifyClient(cfg.SpotifyAPIURL, session)

	// Playback controller with one adapter per origin. The adapters report
	// back into the controller, so they register after construction.
	controller := player.NewController()
	controller.RegisterAdapter(player.NewDirectAudioAdapter(controller, time.Second))
	controller.RegisterAdapter(player.NewEmbeddedVideoAdapter(controller, func() player.DurationResolver {
		return youtube
	}, time.Second))
	controller.RegisterAdapter(player.NewRemoteSessionAdapter(controller, session, cfg.SpotifyAPIURL, cfg.SpotifyDeviceID, remotePollInterval))

	lib := library.New()
	blobs := store.NewBlobStore(db.RedisClient)
	agent := assistant.NewAgent(&assistant.Config{
		APIBaseURL: cfg.AssistantAPIURL,
		APIKeys:    cfg.AssistantAPIKeys,
		Model:      cfg.AssistantModel,
		MaxTokens:  cfg.AssistantMaxTok,
	})

	userRepo := repository.NewMySQLUserRepository(db.DB)
	chatRepo := repository.NewGormChatRepository(db.GormDB)

	watcher := local.NewWatcher(cfg.MusicDir, "http://localhost"+cfg.ListenAddr, nil)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("local music watcher disabled", logger.ErrorField(err))
	}

	apiHandler := NewAPIHandler(cfg, controller, lib, blobs, youtube, spotify, agent, session, userRepo, chatRepo, watcher)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Player
	router.HandleFunc("/api/player/state", apiHandler.AuthMiddleware(apiHandler.PlayerStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/play", apiHandler.AuthMiddleware(apiHandler.PlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/toggle", apiHandler.AuthMiddleware(apiHandler.TogglePlayPauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/next", apiHandler.AuthMiddleware(apiHandler.NextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/previous", apiHandler.AuthMiddleware(apiHandler.PreviousHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek", apiHandler.AuthMiddleware(apiHandler.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/volume", apiHandler.AuthMiddleware(apiHandler.VolumeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/shuffle", apiHandler.AuthMiddleware(apiHandler.ToggleShuffleHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/repeat", apiHandler.AuthMiddleware(apiHandler.ToggleRepeatHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/ws", apiHandler.AuthMiddleware(apiHandler.PlayerWSHandler)).Methods(http.MethodGet)

	// Playlists
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.GetPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/generate", apiHandler.AuthMiddleware(apiHandler.GeneratePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/import", apiHandler.AuthMiddleware(apiHandler.ImportPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.UpdatePlaylistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs", apiHandler.AuthMiddleware(apiHandler.AddSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{track_id}", apiHandler.AuthMiddleware(apiHandler.RemoveSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/play", apiHandler.AuthMiddleware(apiHandler.PlayPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/cover", apiHandler.AuthMiddleware(apiHandler.UploadCoverHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/edit", apiHandler.AuthMiddleware(apiHandler.EditPlaylistHandler)).Methods(http.MethodPost)

	// Library
	router.HandleFunc("/api/favorites", apiHandler.AuthMiddleware(apiHandler.GetFavoritesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites", apiHandler.AuthMiddleware(apiHandler.ToggleFavoriteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recents", apiHandler.AuthMiddleware(apiHandler.GetRecentsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/local", apiHandler.AuthMiddleware(apiHandler.GetLocalTracksHandler)).Methods(http.MethodGet)

	// Search
	router.HandleFunc("/api/search", apiHandler.AuthMiddleware(apiHandler.SearchHandler)).Methods(http.MethodGet)

	// Assistant
	router.HandleFunc("/api/chat", apiHandler.AuthMiddleware(apiHandler.ChatHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/chat/history", apiHandler.AuthMiddleware(apiHandler.ChatHistoryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/chat/history", apiHandler.AuthMiddleware(apiHandler.ClearChatHistoryHandler)).Methods(http.MethodDelete)

	// Settings and remote session
	router.HandleFunc("/api/settings", apiHandler.AuthMiddleware(apiHandler.GetSettingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/settings", apiHandler.AuthMiddleware(apiHandler.UpdateSettingsHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/settings/ui", apiHandler.AuthMiddleware(apiHandler.UpdateUIFlagsHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/spotify/status", apiHandler.AuthMiddleware(apiHandler.SpotifyStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/spotify/connect", apiHandler.AuthMiddleware(apiHandler.SpotifyConnectHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/spotify/disconnect", apiHandler.AuthMiddleware(apiHandler.SpotifyDisconnectHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/spotify/refresh", apiHandler.AuthMiddleware(apiHandler.SpotifyRefreshHandler)).Methods(http.MethodPost)

	// Data export / import
	router.HandleFunc("/api/data/export", apiHandler.AuthMiddleware(apiHandler.ExportDataHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/data/import", apiHandler.AuthMiddleware(apiHandler.ImportDataHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/data/load", apiHandler.AuthMiddleware(apiHandler.LoadDataHandler)).Methods(http.MethodPost)

	// Media
	router.HandleFunc("/api/audio/{id}", apiHandler.LocalAudioHandler).Methods(http.MethodGet, http.MethodHead)
	router.PathPrefix("/storage/").HandlerFunc(apiHandler.StorageHandler).Methods(http.MethodGet, http.MethodHead)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logger.ErrorField(err))
	}
}

// corsMiddleware allows the browser frontend on another origin to call the
// API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
