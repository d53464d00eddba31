package server

import (
	"context"

	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const datagramSpanName = "eventserver.datagram"

// startDatagramSpan starts the span that covers handling one datagram.
func (s *Server) startDatagramSpan(dg transport.Datagram) trace.Span {
	_, span := s.tracer.Start(context.Background(), datagramSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("net.peer.addr", dg.Source.String()),
			attribute.Int("datagram.size", len(dg.Data)),
		),
	)
	return span
}

func setPacketAttributes(span trace.Span, pkt *protocol.Packet, token uint32) {
	span.SetAttributes(
		attribute.String("packet.type", pkt.Type.String()),
		attribute.Int64("packet.seq", int64(pkt.Seq)),
		attribute.Int64("packet.total", int64(pkt.Total)),
		attribute.Int64("client.token", int64(token)),
	)
}

func spanError(span trace.Span, err error, description string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}
