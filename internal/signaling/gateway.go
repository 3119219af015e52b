package signaling

import (
	"log"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aurachat/aura/internal/stats"
)

// Gateway is the process-wide entry point for realtime connections. The
// underlying SignalServer is constructed at most once no matter how many
// times Server or ServeHTTP is invoked; later calls reuse the instance.
type Gateway struct {
	log            *log.Logger
	path           string
	allowedOrigins []string
	stats          stats.StatsProvider

	once sync.Once
	srv  *SignalServer
}

func NewGateway(logger *log.Logger, path string, allowedOrigins []string, sp stats.StatsProvider) *Gateway {
	return &Gateway{
		log:            logger,
		path:           path,
		allowedOrigins: allowedOrigins,
		stats:          sp,
	}
}

// Path returns the transport path the gateway should be mounted on.
func (g *Gateway) Path() string {
	return g.path
}

// Server returns the signal server, constructing and starting it on first
// call.
func (g *Gateway) Server() *SignalServer {
	g.once.Do(func() {
		g.log.Println("initializing signal server")
		g.srv = NewSignalServer(g.log, NewRoomRegistry(), g.stats)
		go g.srv.Run()
	})

	return g.srv
}

// ServeHTTP upgrades the request and hands the connection to the signal
// server.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients send no origin header
				return true
			}

			return slices.Contains(g.allowedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Println("error upgrading connection:", err)
		return
	}

	srv := g.Server()
	client := NewClient(uuid.NewString(), conn, srv, g.log)

	srv.Register(client)
	go client.Write()
	go client.Read()
}
