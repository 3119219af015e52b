package signaling

import (
	"context"
	"log"
	"slices"

	"github.com/aurachat/aura/internal/stats"
)

const (
	metricActiveConnections = "NumActiveConnections"
	metricActiveRooms       = "NumActiveRooms"
	metricSignalsRelayed    = "NumSignalsRelayed"
	metricEventsDropped     = "NumEventsDropped"
)

type stopReq struct {
	done chan struct{}
}

// SignalServer owns every connection from register to deregister. All
// connection and membership mutations happen on its run loop, so one
// connection's events are processed in the order received and can never
// corrupt another connection's state.
type SignalServer struct {
	log      *log.Logger
	registry *RoomRegistry
	stats    stats.StatsProvider

	conns map[string]*Client

	eventChan      chan *ClientEvent
	registerChan   chan *Client
	deregisterChan chan *Client
	stop           chan stopReq
	done           chan struct{}
}

func NewSignalServer(logger *log.Logger, registry *RoomRegistry, sp stats.StatsProvider) *SignalServer {
	sp.RegisterMetric(metricActiveConnections)
	sp.RegisterMetric(metricActiveRooms)
	sp.RegisterMetric(metricSignalsRelayed)
	sp.RegisterMetric(metricEventsDropped)

	return &SignalServer{
		log:            logger,
		registry:       registry,
		stats:          sp,
		conns:          make(map[string]*Client),
		eventChan:      make(chan *ClientEvent, 256),
		registerChan:   make(chan *Client),
		deregisterChan: make(chan *Client),
		stop:           make(chan stopReq),
		done:           make(chan struct{}),
	}
}

// Registry returns the server's room registry for membership queries.
func (ss *SignalServer) Registry() *RoomRegistry {
	return ss.registry
}

func (ss *SignalServer) Run() {
	for {
		select {
		case c := <-ss.registerChan:
			ss.addConn(c)
		case c := <-ss.deregisterChan:
			ss.handleDisconnect(c)
		case ev := <-ss.eventChan:
			ss.handleEvent(ev)
		case req := <-ss.stop:
			ss.log.Println("shutting down signal server")
			for _, c := range ss.conns {
				if c.conn != nil {
					c.conn.Close()
				}
				c.stopClient()
			}
			close(ss.done)
			close(req.done)
			return
		}
	}
}

// Register hands a new connection to the run loop.
func (ss *SignalServer) Register(c *Client) {
	select {
	case ss.registerChan <- c:
	case <-ss.done:
	}
}

// Deregister removes a connection and cleans up its room memberships.
// Safe to call more than once for the same connection.
func (ss *SignalServer) Deregister(c *Client) {
	select {
	case ss.deregisterChan <- c:
	case <-ss.done:
	}
}

// Dispatch feeds a validated client event into the run loop.
func (ss *SignalServer) Dispatch(ev *ClientEvent) {
	select {
	case ss.eventChan <- ev:
	case <-ss.done:
	}
}

func (ss *SignalServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}
	select {
	case ss.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ss *SignalServer) addConn(c *Client) {
	ss.log.Printf("registering connection %s", c.id)
	ss.conns[c.id] = c
	ss.stats.Incr(metricActiveConnections)

	c.queueEvent(&ServerEvent{
		Connected: &Connected{SocketId: c.id},
	})
}

func (ss *SignalServer) handleEvent(ev *ClientEvent) {
	switch {
	case ev.Join != nil:
		ss.handleJoin(ev.client, ev.Join)
	case ev.Leave != nil:
		ss.handleLeave(ev.client, ev.Leave)
	case ev.Signal != nil:
		ss.handleSignal(ev.Signal)
	}
}

// handleJoin adds the connection to the room and notifies the other
// members. The registry is updated before any notification is queued, so a
// peer that observes user-joined can already see the joiner in a
// membership query. Re-joining is a membership no-op but still notifies.
func (ss *SignalServer) handleJoin(c *Client, j *Join) {
	c.userId = j.UserId

	_, created := ss.registry.Add(j.ChannelId, c.id)
	if created {
		ss.stats.Incr(metricActiveRooms)
	}

	for _, id := range ss.registry.MembersOf(j.ChannelId) {
		if id == c.id {
			continue
		}
		peer, ok := ss.conns[id]
		if !ok {
			continue
		}
		peer.queueEvent(&ServerEvent{
			UserJoined: &UserJoined{
				UserId:    j.UserId,
				SocketId:  c.id,
				ChannelId: j.ChannelId,
			},
		})
	}

	ss.broadcastVoiceUsers(j.ChannelId)
}

func (ss *SignalServer) handleLeave(c *Client, l *Leave) {
	removed, emptied := ss.registry.Remove(l.ChannelId, c.id)
	if !removed {
		return
	}
	if emptied {
		ss.stats.Decr(metricActiveRooms)
		return
	}

	ss.notifyLeft(c, l.ChannelId)
	ss.broadcastVoiceUsers(l.ChannelId)
}

// handleSignal forwards one payload to the target connection. Unknown
// targets are dropped without an error to the sender. This is a single
// forward, never a fan-out.
func (ss *SignalServer) handleSignal(s *Signal) {
	target, ok := ss.conns[s.To]
	if !ok {
		ss.log.Printf("signal target %s not connected, dropping", s.To)
		ss.stats.Incr(metricEventsDropped)
		return
	}

	target.queueEvent(&ServerEvent{
		Signal: &SignalDelivery{
			From: s.From,
			Data: s.Data,
		},
	})
	ss.stats.Incr(metricSignalsRelayed)
}

func (ss *SignalServer) handleDisconnect(c *Client) {
	if _, ok := ss.conns[c.id]; !ok {
		// already deregistered
		return
	}

	ss.log.Printf("removing connection %s", c.id)
	delete(ss.conns, c.id)
	ss.stats.Decr(metricActiveConnections)

	for _, channelId := range ss.registry.RemoveEverywhere(c.id) {
		if len(ss.registry.MembersOf(channelId)) == 0 {
			ss.stats.Decr(metricActiveRooms)
			continue
		}

		ss.notifyLeft(c, channelId)
		ss.broadcastVoiceUsers(channelId)
	}
}

func (ss *SignalServer) notifyLeft(c *Client, channelId string) {
	for _, id := range ss.registry.MembersOf(channelId) {
		peer, ok := ss.conns[id]
		if !ok {
			continue
		}
		peer.queueEvent(&ServerEvent{
			UserLeft: &UserLeft{
				UserId:    c.userId,
				SocketId:  c.id,
				ChannelId: channelId,
			},
		})
	}
}

// broadcastVoiceUsers sends the room's current roster to every member.
func (ss *SignalServer) broadcastVoiceUsers(channelId string) {
	members := ss.registry.MembersOf(channelId)
	if members == nil {
		return
	}

	userIds := make([]int, 0, len(members))
	for _, id := range members {
		c, ok := ss.conns[id]
		if !ok || c.userId == 0 {
			continue
		}
		userIds = append(userIds, c.userId)
	}
	slices.Sort(userIds)

	for _, id := range members {
		c, ok := ss.conns[id]
		if !ok {
			continue
		}
		c.queueEvent(&ServerEvent{
			VoiceUsers: &VoiceUsers{
				ChannelId: channelId,
				UserIds:   userIds,
			},
		})
	}
}
