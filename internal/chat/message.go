// Package chat реализует транспорт сообщений WhatsApp через HTTP-шлюз.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ChatSuffix задаёт доменный суффикс личных чатов WhatsApp.
const ChatSuffix = "@s.whatsapp.net"

const (
	groupSuffix     = "@g.us"
	broadcastSuffix = "@broadcast"
)

// Kind описывает вариант входящего сообщения.
type Kind int

const (
	KindUnsupported Kind = iota
	KindText
	KindExtendedText
	KindButtonReply
	KindListReply
	KindImageCaption
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindExtendedText:
		return "extended_text"
	case KindButtonReply:
		return "button_reply"
	case KindListReply:
		return "list_reply"
	case KindImageCaption:
		return "image_caption"
	default:
		return "unsupported"
	}
}

// Message описывает входящее сообщение, приведённое к одному из вариантов Kind.
type Message struct {
	ID       string
	From     string
	PushName string
	FromMe   bool
	Group    bool
	Kind     Kind
	body     string
}

// Text возвращает текстовое содержимое сообщения независимо от его варианта.
func (m Message) Text() string {
	return strings.TrimSpace(m.body)
}

// IsPrivate сообщает, пришло ли сообщение из личного чата.
func (m Message) IsPrivate() bool {
	if m.Group {
		return false
	}
	return !strings.HasSuffix(m.From, groupSuffix) && !strings.HasSuffix(m.From, broadcastSuffix)
}

// Address строит адрес личного чата по номеру телефона.
func Address(phone string) string {
	return phone + ChatSuffix
}

// ErrBadPayload возвращается, если тело вебхука не удалось разобрать.
var ErrBadPayload = errors.New("bad webhook payload")

type webhookPayload struct {
	Type  string `json:"type"`
	Event struct {
		Info struct {
			ID       string `json:"ID"`
			Chat     string `json:"Chat"`
			Sender   string `json:"Sender"`
			PushName string `json:"PushName"`
			IsFromMe bool   `json:"IsFromMe"`
			IsGroup  bool   `json:"IsGroup"`
		} `json:"Info"`
		Message rawMessage `json:"Message"`
	} `json:"event"`
}

type rawMessage struct {
	Conversation        *string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
	ButtonsResponseMessage *struct {
		SelectedButtonID    string `json:"selectedButtonId"`
		SelectedDisplayText string `json:"selectedDisplayText"`
	} `json:"buttonsResponseMessage"`
	ListResponseMessage *struct {
		Title             string `json:"title"`
		SingleSelectReply *struct {
			SelectedRowID string `json:"selectedRowId"`
		} `json:"singleSelectReply"`
	} `json:"listResponseMessage"`
	ImageMessage *struct {
		Caption string `json:"caption"`
	} `json:"imageMessage"`
}

// project выбирает вариант сообщения и его текст.
func (r rawMessage) project() (Kind, string) {
	switch {
	case r.Conversation != nil:
		return KindText, *r.Conversation
	case r.ExtendedTextMessage != nil:
		return KindExtendedText, r.ExtendedTextMessage.Text
	case r.ButtonsResponseMessage != nil:
		if r.ButtonsResponseMessage.SelectedDisplayText != "" {
			return KindButtonReply, r.ButtonsResponseMessage.SelectedDisplayText
		}
		return KindButtonReply, r.ButtonsResponseMessage.SelectedButtonID
	case r.ListResponseMessage != nil:
		if r.ListResponseMessage.Title != "" {
			return KindListReply, r.ListResponseMessage.Title
		}
		if r.ListResponseMessage.SingleSelectReply != nil {
			return KindListReply, r.ListResponseMessage.SingleSelectReply.SelectedRowID
		}
		return KindListReply, ""
	case r.ImageMessage != nil:
		return KindImageCaption, r.ImageMessage.Caption
	default:
		return KindUnsupported, ""
	}
}

// DecodeWebhook разбирает событие шлюза. Для событий, не являющихся сообщениями,
// возвращает ok == false без ошибки.
func DecodeWebhook(body []byte) (Message, bool, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Message{}, false, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if p.Type != "Message" {
		return Message{}, false, nil
	}

	info := p.Event.Info
	from := info.Chat
	if from == "" {
		from = info.Sender
	}
	if from == "" {
		return Message{}, false, fmt.Errorf("%w: missing sender", ErrBadPayload)
	}
	kind, text := p.Event.Message.project()

	return Message{
		ID:       info.ID,
		From:     from,
		PushName: info.PushName,
		FromMe:   info.IsFromMe,
		Group:    info.IsGroup,
		Kind:     kind,
		body:     text,
	}, true, nil
}

// NewTextMessage создаёт простое текстовое сообщение.
func NewTextMessage(from, pushName, text string) Message {
	return Message{From: from, PushName: pushName, Kind: KindText, body: text}
}
