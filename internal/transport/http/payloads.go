package http

import (
	"encoding/json"
	"sync"

	"flashbattle-quiz-service/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ack is the common reply shape for request/acknowledge events.
type ack struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
	BankID  string `json:"bankId,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Deleted *int   `json:"deleted,omitempty"`
}

// number decodes any JSON value into a float64. Non-numeric input becomes 0.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*n = 0
		return nil
	}
	*n = number(cast.ToFloat64(v))
	return nil
}

// Client -> server websocket payloads.

type loginPayload struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type bankPayload struct {
	BankID string `json:"bankId"`
}

type importBankPayload struct {
	BankID   string `json:"bankId"`
	BankName string `json:"bankName"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type startExamPayload struct {
	RoomID           string `json:"roomId"`
	BankID           string `json:"bankId"`
	QuestionCount    number `json:"questionCount"`
	TimeLimitMinutes number `json:"timeLimitMinutes"`
}

type deleteRoomPayload struct {
	RoomID string `json:"roomId"`
	// DevPassword carries the operator admin token; AdminToken is an alias.
	DevPassword string `json:"devPassword"`
	AdminToken  string `json:"adminToken"`
}

// Server -> client websocket payloads.

type loginAck struct {
	PlayerID       string                 `json:"playerId"`
	Name           string                 `json:"name"`
	Stats          any                    `json:"stats"`
	WrongQuestions []domain.WrongQuestion `json:"wrongQuestions"`
}

type bankQuestions struct {
	BankID    string            `json:"bankId"`
	Questions []domain.Question `json:"questions"`
}

type bankError struct {
	Type string `json:"type"`
}

// HTTP bodies.

type registerRequest struct {
	UserID   string `json:"userId" binding:"required,userid"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type examResultRequest struct {
	PlayerID       string          `json:"playerId"`
	Name           string          `json:"name"`
	Mode           string          `json:"mode"`
	RoomID         string          `json:"roomId"`
	BankID         string          `json:"bankId"`
	Score          number          `json:"score"`
	Total          number          `json:"total"`
	CorrectCount   number          `json:"correctCount"`
	WrongQuestions json.RawMessage `json:"wrongQuestions"`
}

// wrongQuestions decodes the optional list leniently: a non-list value is
// ignored and undecodable elements are skipped.
func (r examResultRequest) wrongQuestions() []domain.WrongQuestion {
	var items []json.RawMessage
	if len(r.WrongQuestions) == 0 || json.Unmarshal(r.WrongQuestions, &items) != nil {
		return nil
	}
	out := make([]domain.WrongQuestion, 0, len(items))
	for _, item := range items {
		var q domain.WrongQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}

var setupValidator sync.Once

// registerValidators adds the "userid" tag to gin's validator engine.
func registerValidators() {
	setupValidator.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
				return domain.ValidUserID(fl.Field().String())
			})
		}
	})
}
