package repositories

import (
	"chat-broadcast/domain/chat"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Badger values use the protobuf wire format:
//
//	message ChatMessage {
//	  string id = 1;
//	  string user = 2;
//	  string message = 3;
//	  int64 at = 4; // unix nanoseconds
//	}
const (
	fieldID      protowire.Number = 1
	fieldUser    protowire.Number = 2
	fieldMessage protowire.Number = 3
	fieldAt      protowire.Number = 4
)

func encodeRecord(record chat.ChatMessage) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendString(b, record.ID.String())
	b = protowire.AppendTag(b, fieldUser, protowire.BytesType)
	b = protowire.AppendString(b, record.User)
	b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
	b = protowire.AppendString(b, record.Message)
	b = protowire.AppendTag(b, fieldAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(record.Timestamp.UnixNano()))
	return b
}

func decodeRecord(b []byte) (chat.ChatMessage, error) {
	var record chat.ChatMessage
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return chat.ChatMessage{}, fmt.Errorf("decode record tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return chat.ChatMessage{}, fmt.Errorf("decode record id: %w", protowire.ParseError(n))
			}
			id, err := uuid.Parse(v)
			if err != nil {
				return chat.ChatMessage{}, fmt.Errorf("decode record id: %w", err)
			}
			record.ID = id
			b = b[n:]
		case num == fieldUser && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return chat.ChatMessage{}, fmt.Errorf("decode record user: %w", protowire.ParseError(n))
			}
			record.User = v
			b = b[n:]
		case num == fieldMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return chat.ChatMessage{}, fmt.Errorf("decode record message: %w", protowire.ParseError(n))
			}
			record.Message = v
			b = b[n:]
		case num == fieldAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return chat.ChatMessage{}, fmt.Errorf("decode record timestamp: %w", protowire.ParseError(n))
			}
			record.Timestamp = time.Unix(0, int64(v)).UTC()
			b = b[n:]
		default:
			// Unknown fields are skipped so older binaries can read newer records
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return chat.ChatMessage{}, fmt.Errorf("decode record field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return record, nil
}
