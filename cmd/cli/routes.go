package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/artifacts"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/config"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/database"
)

// RouteManager handles all API routes
type RouteManager struct {
	store     database.Store
	artifacts *artifacts.Store
	signer    *artifacts.Signer
	editors   *EditorRegistry
	cfg       *config.Config
	logger    *zap.Logger
	Router    *mux.Router
}

// NewRouteManager creates a new RouteManager instance. signer may be nil,
// which disables share links.
func NewRouteManager(cfg *config.Config, store database.Store, artifactStore *artifacts.Store, signer *artifacts.Signer, editors *EditorRegistry, logger *zap.Logger) *RouteManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteManager{
		store:     store,
		artifacts: artifactStore,
		signer:    signer,
		editors:   editors,
		cfg:       cfg,
		logger:    logger,
		Router:    mux.NewRouter(),
	}
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.corsMiddleware)
	r.Use(rm.contextMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods("GET")

	// Signed artifact downloads
	r.HandleFunc("/artifacts/{digest}", rm.downloadArtifactHandler).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	api.HandleFunc("/formats", rm.listFormatsHandler).Methods("GET")
	api.HandleFunc("/artifacts/{digest}/share", rm.shareArtifactHandler).Methods("POST")

	// Rooms and history
	api.HandleFunc("/rooms", rm.listRoomsHandler).Methods("GET")
	api.HandleFunc("/rooms", rm.createRoomHandler).Methods("POST")
	api.HandleFunc("/rooms/{id}", rm.getRoomHandler).Methods("GET")
	api.HandleFunc("/rooms/{id}/sessions", rm.listSessionsHandler).Methods("GET")
	api.HandleFunc("/rooms/{id}/pivot", rm.roomPivotHandler).Methods("GET")
	api.HandleFunc("/rooms/{id}/editors", rm.openEditorHandler).Methods("POST")

	// Editors
	ed := api.PathPrefix("/editors/{id}").Subrouter()
	ed.HandleFunc("", rm.editorStatusHandler).Methods("GET")
	ed.HandleFunc("", rm.closeEditorHandler).Methods("DELETE")
	ed.HandleFunc("/strokes", rm.strokeHandler).Methods("POST")
	ed.HandleFunc("/undo", rm.undoHandler).Methods("POST")
	ed.HandleFunc("/redo", rm.redoHandler).Methods("POST")
	ed.HandleFunc("/clear", rm.clearHandler).Methods("POST")
	ed.HandleFunc("/lock", rm.lockHandler).Methods("POST")
	ed.HandleFunc("/unlock", rm.unlockHandler).Methods("POST")
	ed.HandleFunc("/mode", rm.setModeHandler).Methods("PUT")
	ed.HandleFunc("/display", rm.setDisplaySizeHandler).Methods("PUT")
	ed.HandleFunc("/points", rm.listPointsHandler).Methods("GET")
	ed.HandleFunc("/points", rm.addPointHandler).Methods("POST")
	ed.HandleFunc("/points/{pointID}", rm.updatePointHandler).Methods("PATCH")
	ed.HandleFunc("/points/{pointID}", rm.removePointHandler).Methods("DELETE")
	ed.HandleFunc("/metadata", rm.getMetadataHandler).Methods("GET")
	ed.HandleFunc("/metadata", rm.setMetadataHandler).Methods("PATCH")
	ed.HandleFunc("/format", rm.setFormatHandler).Methods("PUT")
	ed.HandleFunc("/pivot", rm.editorPivotHandler).Methods("GET")
	ed.HandleFunc("/sketch.png", rm.sketchHandler).Methods("GET")
	ed.HandleFunc("/save", rm.saveHandler).Methods("POST")
}
