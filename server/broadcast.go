package server

import (
	"time"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/intel"
)

// Notice kinds pushed to WebSocket clients.
const (
	NoticeReportSubmitted   = "report.submitted"
	NoticeReportUpdated     = "report.updated"
	NoticeReportReviewed    = "report.reviewed"
	NoticeReportDeleted     = "report.deleted"
	NoticeEventTransitioned = "event.transitioned"
	NoticeEventFused        = "event.fused"
	NoticeDecisionRecorded  = "decision.recorded"
	NoticeDecisionUpdated   = "decision.updated"
)

// Notice is one entity change pushed to connected clients. visible gates
// delivery per client so classified changes never reach under-cleared
// connections.
type Notice struct {
	Kind string      `json:"kind"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`

	visible func(*intel.User) bool
}

// Notify queues an entity change for broadcast. Visibility follows the
// same rules as reads: clearance plus approved-only for observers, and
// decisions only to decision-capable roles. Drops the notice if the
// broadcast queue is full rather than blocking a request handler.
func (s *Server) Notify(kind string, entity interface{}) {
	n := &Notice{
		Kind:    kind,
		Time:    time.Now().UTC(),
		Data:    entity,
		visible: s.visibilityFor(entity),
	}
	select {
	case s.broadcast <- n:
	default:
		drops := s.broadcastDrops.Add(1)
		s.logger.Warnw("Broadcast queue full, dropping notice", "kind", kind, "total_drops", drops)
	}
}

func (s *Server) visibilityFor(entity interface{}) func(*intel.User) bool {
	switch e := entity.(type) {
	case *intel.Report:
		return func(u *intel.User) bool { return s.gate.CanReadReport(u, e).Granted }
	case *intel.Event:
		return func(u *intel.User) bool { return s.gate.CanReadEvent(u, e).Granted }
	case *intel.Decision:
		return func(u *intel.User) bool { return s.gate.CheckCapability(u, access.CapMakeDecisions).Granted }
	default:
		// Bare identifiers (deletions) carry nothing classified.
		return func(*intel.User) bool { return true }
	}
}

// Run is the hub loop: client registration, unregistration and fan-out.
// It owns the clients map together with handleClientRegister/Unregister.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case notice := <-s.broadcast:
			s.fanOut(notice)
		}
	}
}

// fanOut delivers a notice to every client allowed to see it. Slow clients
// get skipped, not waited on.
func (s *Server) fanOut(n *Notice) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if !n.visible(client.user) {
			continue
		}
		select {
		case client.sendMsg <- n:
		default:
			s.logger.Debugw("Client send buffer full, skipping notice",
				"client_id", shortID(client.id), "kind", n.Kind)
		}
	}
}
