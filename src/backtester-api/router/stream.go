package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/store"
)

const (
	snapshotAction   = "snapshot"
	streamBufferSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream pushes the current snapshot, then every state change, to a websocket client.
// A client that falls streamBufferSize changes behind is disconnected.
func handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("handleStream: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	st := workspace.GetStore()

	changes := make(chan store.StateChange, streamBufferSize)
	overflow := make(chan struct{})
	var overflowOnce sync.Once

	unsubscribe := st.Subscribe(func(change store.StateChange) {
		select {
		case changes <- change:
		default:
			overflowOnce.Do(func() { close(overflow) })
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := store.StateChange{Version: st.Version(), Action: snapshotAction, State: st.GetState()}
	if err := writeChange(conn, snapshot); err != nil {
		log.Debugf("handleStream: failed to write snapshot: %v", err)
		return
	}

	log.Debugf("handleStream: client %s connected", r.RemoteAddr)

	for {
		select {
		case change := <-changes:
			if err := writeChange(conn, change); err != nil {
				log.Debugf("handleStream: client %s write failed: %v", r.RemoteAddr, err)
				return
			}
		case <-overflow:
			log.Warnf("handleStream: client %s is too slow, disconnecting", r.RemoteAddr)
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"), time.Now().Add(streamWriteTimeout))
			return
		case <-closed:
			log.Debugf("handleStream: client %s disconnected", r.RemoteAddr)
			return
		}
	}
}

func writeChange(conn *websocket.Conn, change store.StateChange) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}

	return conn.WriteJSON(change)
}
