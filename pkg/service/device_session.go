package service

import (
	"context"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/interaction"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/transport"
	"github.com/krac-home/krac-go/pkg/wire"
)

// deviceSession serves one bridge connection. It owns the interaction
// server for that connection, so subscriptions live and die with it.
type deviceSession struct {
	svc    *DeviceService
	conn   *transport.ServerConn
	server *interaction.Server
	cancel context.CancelFunc
}

func newDeviceSession(svc *DeviceService, conn *transport.ServerConn) *deviceSession {
	sess := &deviceSession{
		svc:    svc,
		conn:   conn,
		server: interaction.NewServerWithConfig(svc.device, svc.config.Subscription),
	}
	sess.server.SetExecuteHandler(svc.handleExecute)
	sess.server.SetNotificationHandler(sess.sendNotification)

	ctx, cancel := context.WithCancel(svc.ctx)
	sess.cancel = cancel
	go sess.server.Run(ctx, 0)

	return sess
}

// handleFrame decodes one inbound frame and answers it. Bridges only
// send requests; anything else is dropped.
func (s *deviceSession) handleFrame(data []byte) {
	msgType, err := wire.PeekMessageType(data)
	if err != nil {
		s.svc.debugLog("dropping unreadable frame", "conn", s.conn.ConnID(), "error", err)
		return
	}
	if msgType != wire.MessageTypeRequest {
		s.svc.debugLog("dropping unexpected message", "conn", s.conn.ConnID(), "type", msgType)
		return
	}

	req, err := wire.DecodeRequest(data)
	if err != nil {
		s.svc.debugLog("dropping malformed request", "conn", s.conn.ConnID(), "error", err)
		return
	}

	resp := s.server.HandleRequest(s.svc.ctx, req)
	out, err := wire.EncodeResponse(resp)
	if err != nil {
		s.svc.debugLog("response encode failed", "conn", s.conn.ConnID(), "error", err)
		return
	}
	if err := s.conn.Send(out); err != nil {
		s.svc.debugLog("response send failed", "conn", s.conn.ConnID(), "error", err)
		return
	}

	if resp.IsSuccess() {
		s.emitRequestEvent(req)
	}
}

// sendNotification encodes and sends a subscription notification.
func (s *deviceSession) sendNotification(n *wire.Notification) {
	data, err := wire.EncodeNotification(n)
	if err != nil {
		s.svc.debugLog("notification encode failed", "error", err)
		return
	}
	if err := s.conn.Send(data); err != nil {
		s.svc.debugLog("notification send failed", "conn", s.conn.ConnID(), "error", err)
	}
}

// emitRequestEvent reports successful commands and executes.
func (s *deviceSession) emitRequestEvent(req *wire.Request) {
	switch req.Operation {
	case wire.OpCommand:
		cp := wire.ExtractCommandPayload(req.Payload)
		if cp == nil {
			return
		}
		component := req.Component
		if component == "" {
			component = model.MainComponentID
		}
		s.svc.emitEvent(Event{
			Type:       EventCommandInvoked,
			DeviceID:   s.svc.device.ID(),
			ConnID:     s.conn.ConnID(),
			Component:  component,
			Capability: req.Capability,
			Command:    cp.Name,
			Arguments:  cp.Arguments,
		})
	case wire.OpExecute:
		ep := wire.ExtractExecutePayload(req.Payload)
		if ep == nil {
			return
		}
		s.svc.emitEvent(Event{
			Type:       EventCommandInvoked,
			DeviceID:   s.svc.device.ID(),
			ConnID:     s.conn.ConnID(),
			Component:  model.MainComponentID,
			Capability: caps.CapExecute,
			Command:    ep.Href,
		})
	}
}

// close stops notification delivery and detaches the interaction
// server from the device model.
func (s *deviceSession) close() {
	s.cancel()
	s.server.Close()
}
