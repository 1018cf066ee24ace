package studyapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/eventpubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// progressHub fans bootstrap progress out to every connected client. Slow
// clients miss updates rather than block the bootstrap.
type progressHub struct {
	mu      sync.Mutex
	clients map[chan eventpubsub.BootstrapProgress]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{
		clients: make(map[chan eventpubsub.BootstrapProgress]struct{}),
	}
}

func (h *progressHub) publish(p eventpubsub.BootstrapProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- p:
		default:
		}
	}
}

func (h *progressHub) add() chan eventpubsub.BootstrapProgress {
	ch := make(chan eventpubsub.BootstrapProgress, 64)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *progressHub) remove(ch chan eventpubsub.BootstrapProgress) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *progressHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// streamProgress upgrades to a websocket and forwards bootstrap progress as
// JSON messages, optionally only those of ?run_id=.
func (h *Handler) streamProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("streamProgress: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	runID := r.URL.Query().Get("run_id")

	ch := h.hub.add()
	defer h.hub.remove(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case p := <-ch:
			if runID != "" && p.RunID != runID {
				continue
			}

			if err := conn.WriteJSON(p); err != nil {
				log.Debugf("streamProgress: write failed: %v", err)
				return
			}
		}
	}
}
