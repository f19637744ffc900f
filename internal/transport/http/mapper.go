package http

import (
	"roomchat/internal/core"
	"roomchat/proto"
)

func frameToCommand(inbound proto.Inbound) (*core.Command, *proto.FrameError) {
	var kind core.CommandKind
	switch inbound.Type {
	case proto.InboundTypeSubscribe:
		kind = core.CommandSubscribe
	case proto.InboundTypeUnsubscribe:
		kind = core.CommandUnsubscribe
	case proto.InboundTypePublish:
		kind = core.CommandPublish
	default:
		return nil, &proto.FrameError{Code: core.ErrCodeInvalidFrame, Msg: "unknown frame type"}
	}

	topic, err := proto.ParseTopic(inbound.Topic)
	if err != nil {
		return nil, &proto.FrameError{Code: core.ErrCodeBadRequest, Msg: err.Error()}
	}
	if kind == core.CommandPublish && inbound.Body == "" {
		return nil, &proto.FrameError{Code: core.ErrCodeBadRequest, Msg: "body is required"}
	}

	return &core.Command{Kind: kind, Topic: topic, Body: inbound.Body}, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventTopicMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeMessage,
			Topic: event.Topic.String(),
			Body:  event.Body,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.FrameError{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.FrameError{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeMessage}
	}
}
