package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asignaciones/config"
	"asignaciones/cron"
	"asignaciones/database"
	appointmentRepo "asignaciones/database/repository/appointment"
	patientRepo "asignaciones/database/repository/patient"
	"asignaciones/handlers"
	"asignaciones/middleware"
	"asignaciones/routes"
	"asignaciones/services/call"
	"asignaciones/services/fhir"
	"asignaciones/services/sync"
	"asignaciones/services/telephony"
	"asignaciones/services/tracker"
	"asignaciones/services/tts"
	"asignaciones/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	location, err := time.LoadLocation(config.AppConfig.Timezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid timezone %q: %v", config.AppConfig.Timezone, err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()
	ptRepo := patientRepo.NewMongoPatientRepo()

	// collaborators.
	fhirClient := fhir.NewClient(fhir.ClientConfig{
		AuthURL:      config.AppConfig.FHIRAuthURL,
		BaseURL:      config.AppConfig.FHIRBaseURL,
		ClientID:     config.AppConfig.FHIRClientID,
		ClientSecret: config.AppConfig.FHIRClientSecret,
		Username:     config.AppConfig.FHIRUsername,
		Password:     config.AppConfig.FHIRPassword,
	})

	telephonyProvider := telephony.NewTwilioProvider(
		config.AppConfig.TwilioAccountSID,
		config.AppConfig.TwilioAuthToken,
		config.AppConfig.TwilioFromNumber,
	)

	var synth tts.Synthesizer
	switch config.AppConfig.TTSProvider {
	case "google":
		googleSynth, err := tts.NewGoogleSynthesizer(context.Background(),
			config.AppConfig.GoogleCredentials, config.AppConfig.GoogleTTSVoiceName)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize google speech synthesizer: %v", err)
		}
		defer googleSynth.Close()
		synth = googleSynth
	default:
		synth = &tts.ElevenLabsSynthesizer{
			APIKey:  config.AppConfig.ElevenLabsAPIKey,
			VoiceID: config.AppConfig.ElevenLabsVoiceID,
		}
	}

	// services.
	sessionStore := &call.RedisSessionStore{
		Client: utils.GetSessionCacheClient(),
		TTL:    time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute,
	}
	callService := &call.DefaultCallService{
		Sessions:   sessionStore,
		Telephony:  telephonyProvider,
		Synth:      synth,
		ServerHost: config.AppConfig.ServerHost,
	}

	trackerService := tracker.NewDefaultTrackerService(
		apptRepo,
		telephonyProvider,
		location,
		time.Duration(config.AppConfig.PollIntervalSeconds)*time.Second,
		config.AppConfig.PollMaxAttempts,
	)

	syncService := &sync.DefaultSyncService{
		Source:          fhirClient,
		AppointmentRepo: apptRepo,
		PatientRepo:     ptRepo,
		Workers:         config.AppConfig.SyncWorkers,
	}

	// Background worker: outcome polls and the periodic resolver batches.
	cron.InitWorker(trackerService, syncService)
	if err := cron.EnqueueSyncIn(0); err != nil {
		logger.Sugar().Warnf("main: failed to enqueue initial resolver batch: %v", err)
	}

	utils.StartHealthMonitor(utils.GetSessionCacheClient(), database.MongoClient)

	// handlers.
	callHandler := handlers.NewCallHandler(callService, trackerService, logger)
	syncHandler := handlers.NewSyncHandler(syncService)
	apptHandler := handlers.NewAppointmentHandler(apptRepo, ptRepo, trackerService)

	handlerBundle := &handlers.HandlerBundle{
		CreateCallHandler:     callHandler.CreateCallHandler,
		TwimlHandler:          callHandler.TwimlHandler,
		AudioHandler:          callHandler.AudioHandler,
		HandleResponseHandler: callHandler.HandleResponseHandler,
		StatusWebhookHandler:  callHandler.StatusWebhookHandler,
		CallStatusHandler:     callHandler.CallStatusHandler,
		CancelCallHandler:     callHandler.CancelCallHandler,

		RunSyncHandler: syncHandler.RunSyncHandler,

		GetAppointmentsHandler:    apptHandler.GetAppointmentsHandler,
		GetAppointmentByIDHandler: apptHandler.GetAppointmentByIDHandler,
		GetPatientByIDHandler:     apptHandler.GetPatientByIDHandler,
		UpdateCallOutcomeHandler:  apptHandler.UpdateCallOutcomeHandler,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
