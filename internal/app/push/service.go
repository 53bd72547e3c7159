package push

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/domain/models"
)

// chunkSize caps the number of tokens per multicast call; the gateway
// rejects larger batches.
const chunkSize = 500

// MemberLister resolves the member set of a union by invite code.
type MemberLister interface {
	MemberIDs(ctx context.Context, code string) ([]primitive.ObjectID, error)
}

// TokenLister resolves the registered device tokens of one user.
type TokenLister interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]string, error)
}

// Service fans notifications out to a union's members. Recipients come
// from the union's member list, never from a full user scan, so the
// cost of one event scales with the union and not the install base.
type Service struct {
	members MemberLister
	tokens  TokenLister
	sender  Sender
	log     *zap.Logger
}

func NewService(members MemberLister, tokens TokenLister, sender Sender, log *zap.Logger) *Service {
	return &Service{members: members, tokens: tokens, sender: sender, log: log}
}

// FanoutMessage notifies a union's members about a new chat message.
// The sender's own devices are excluded.
func (s *Service) FanoutMessage(ctx context.Context, unionCode, groupName string, m models.Message) {
	n := Notification{
		Title: groupName,
		Body:  m.SenderName + ": " + truncate(m.Content, 140),
		Data: map[string]string{
			"union_code": unionCode,
			"group_id":   m.GroupID.Hex(),
			"kind":       "message",
		},
	}
	s.fanout(ctx, unionCode, &m.SenderID, n)
}

// FanoutAnnouncement notifies every member of the union, author
// included; board posts are union-wide.
func (s *Service) FanoutAnnouncement(ctx context.Context, a models.Announcement) {
	n := Notification{
		Title: a.Title,
		Body:  truncate(a.Content, 140),
		Data: map[string]string{
			"union_code": a.UnionCode,
			"kind":       "announcement",
			"category":   a.Category,
		},
	}
	s.fanout(ctx, a.UnionCode, nil, n)
}

func (s *Service) fanout(ctx context.Context, unionCode string, exclude *primitive.ObjectID, n Notification) {
	memberIDs, err := s.members.MemberIDs(ctx, unionCode)
	if err != nil {
		s.log.Error("push: resolve members", zap.String("union", unionCode), zap.Error(err))
		return
	}

	var tokens []string
	for _, id := range memberIDs {
		if exclude != nil && id == *exclude {
			continue
		}
		ts, err := s.tokens.ListByUser(ctx, id)
		if err != nil {
			// One bad lookup must not strand everyone else.
			s.log.Warn("push: list tokens", zap.String("user", id.Hex()), zap.Error(err))
			continue
		}
		tokens = append(tokens, ts...)
	}

	tokens = dedupe(tokens)
	if len(tokens) == 0 {
		s.log.Debug("push: no recipients", zap.String("union", unionCode))
		return
	}

	sent := 0
	for start := 0; start < len(tokens); start += chunkSize {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]
		if err := s.sender.Multicast(ctx, chunk, n); err != nil {
			s.log.Warn("push: multicast failed, retrying", zap.Int("tokens", len(chunk)), zap.Error(err))
			if err := s.sender.Multicast(ctx, chunk, n); err != nil {
				s.log.Error("push: multicast retry failed", zap.Int("tokens", len(chunk)), zap.Error(err))
				continue
			}
		}
		sent += len(chunk)
	}
	s.log.Info("push: fanout complete",
		zap.String("union", unionCode),
		zap.Int("tokens", sent))
}

// dedupe drops repeated tokens, keeping first-seen order, so a device
// registered by two accounts gets one notification.
func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
