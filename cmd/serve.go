// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UnB Embedded Systems Lab

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/UnB-Embedded-Lab/ball-in-the-tube/pkg/tubelink"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose telemetry and command entry over HTTP",
	Long: `Headless mode: read telemetry from the rig and serve it over HTTP.

Endpoints:
  GET  /api/v1/samples   current sample window as JSON, oldest first
  GET  /api/v1/health    link-health counters
  POST /api/v1/command   submit a command {"mode","height_mm","duty_pct","valve_pct"}
  GET  /api/v1/stream    WebSocket push of decoded samples

Nothing is persisted; the API serves exactly the in-memory window. A link
failure shuts the server down — reconnection is an operator action.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

// sampleHub fans decoded samples out to websocket subscribers. Slow
// subscribers drop samples rather than stalling the reader.
type sampleHub struct {
	mu   sync.Mutex
	subs map[chan *tubelink.Sample]struct{}
}

func newSampleHub() *sampleHub {
	return &sampleHub{subs: make(map[chan *tubelink.Sample]struct{})}
}

func (h *sampleHub) subscribe() chan *tubelink.Sample {
	ch := make(chan *tubelink.Sample, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *sampleHub) unsubscribe(ch chan *tubelink.Sample) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *sampleHub) publish(s *tubelink.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// serveState ties the handlers to one connection's engine instances.
type serveState struct {
	link   Link
	window *tubelink.SampleWindow
	reader *tubelink.LinkReader
	hub    *sampleHub

	writeMu sync.Mutex // serializes command writes to the link
}

type commandRequest struct {
	Mode     string `json:"mode"`
	HeightMm int    `json:"height_mm"`
	DutyPct  int    `json:"duty_pct"`
	ValvePct int    `json:"valve_pct"`
}

type commandResponse struct {
	Command tubelink.Command `json:"command"`
	Frame   string           `json:"frame"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	if err := e.Encode(v); err != nil {
		log.Errorf("response encode failed: %v", err)
	}
}

func (st *serveState) getSamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, st.window.Snapshot())
}

func (st *serveState) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, st.reader.Stats().Snapshot())
}

func (st *serveState) postCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	mode, err := tubelink.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	command, frame, err := tubelink.Submit(int(mode), req.HeightMm,
		int(tubelink.DutyRawFromPercent(req.DutyPct)),
		int(tubelink.ValveStepsFromPercent(req.ValvePct)))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	st.writeMu.Lock()
	_, werr := st.link.Write(frame)
	st.writeMu.Unlock()
	if werr != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": werr.Error()})
		return
	}

	log.Infof("command sent: %s", tubelink.FormatCommand(command, frame))
	writeJSON(w, http.StatusOK, commandResponse{
		Command: command,
		Frame:   fmt.Sprintf("% X", frame),
	})
}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The serve mode is a lab tool on a trusted network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (st *serveState) streamSamples(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := st.hub.subscribe()
	defer st.hub.unsubscribe(ch)

	log.Infof("stream subscriber connected: %s", r.RemoteAddr)
	for s := range ch {
		if err := conn.WriteJSON(s); err != nil {
			log.Infof("stream subscriber gone: %s", r.RemoteAddr)
			return
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	span, err := retention()
	if err != nil {
		return err
	}

	link, linkInfo, err := OpenLink()
	if err != nil {
		return err
	}
	defer link.Close()

	window, err := tubelink.NewSampleWindow(span)
	if err != nil {
		return err
	}

	st := &serveState{
		link:   link,
		window: window,
		reader: tubelink.NewLinkReader(link, window),
		hub:    newSampleHub(),
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Infof("connection: %s", linkInfo)
	log.Infof("retention window: %v", span)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reader loop: decode until the link fails or shutdown closes it.
	readerDone := make(chan error, 1)
	go func() {
		for {
			samples, err := st.reader.Poll()
			for _, s := range samples {
				st.hub.publish(s)
			}
			if err != nil {
				readerDone <- err
				return
			}
		}
	}()

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/samples", st.getSamples).Methods("GET")
	api.HandleFunc("/health", st.getHealth).Methods("GET")
	api.HandleFunc("/command", st.postCommand).Methods("POST")
	api.HandleFunc("/stream", st.streamSamples).Methods("GET")

	srv := &http.Server{
		Addr:    serveListen,
		Handler: r,
	}

	httpDone := make(chan error, 1)
	go func() {
		log.Infof("serving on %s", serveListen)
		httpDone <- srv.ListenAndServe()
	}()

	var reason error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-readerDone:
		log.Errorf("link failed: %v", err)
		reason = err
	case err := <-httpDone:
		log.Errorf("http server failed: %v", err)
		reason = err
	}

	// Close the link first so the reader's blocked read ends, then drain
	// the HTTP server.
	link.Close()
	window.Clear()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}

	if reason != nil && ctx.Err() == nil {
		return reason
	}
	return nil
}
