package antiphish

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"mvdan.cc/xurls"
)

// domains that never count as phishing, subdomains included
var allowedDomains = []string{
	"discord.com",
	"discordapp.com",
	"discord.gg",
	"steamcommunity.com",
	"store.steampowered.com",
	"github.com",
	"youtube.com",
	"youtu.be",
}

var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfree.?nitro\b`),
	regexp.MustCompile(`(?i)\bdiscord.*gift\b`),
	regexp.MustCompile(`(?i)\bsteam.*free\b`),
	regexp.MustCompile(`(?i)\bnitro.*(gift|free)\b`),
	regexp.MustCompile(`(?i)\bgratis.?nitro\b`),
	regexp.MustCompile(`(?i)\blogin.*discord\b`),
	regexp.MustCompile(`(?i)@everyone.*free`),
	regexp.MustCompile(`(?i)\b(disc[o0]rd|dlscord|d1scord)\b`),
}

// Verdict is the result of classifying one message
type Verdict struct {
	Suspicious bool
	Reason     string
}

// Evidence is stored on the auto-flagged subject record
type Evidence struct {
	Message   string `json:"message"`
	ChannelID string `json:"channelId"`
}

// SubjectSink receives subjects the scanner auto-flags
type SubjectSink interface {
	Upsert(entry models.WatchdogUserEntry) error
}

// MessageRemover deletes the offending message
type MessageRemover interface {
	DeleteMessage(channelID, messageID string) error
}

// Message carries the fields of a chat message the scanner inspects
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	UserID    string
	Username  string
	AvatarURL string
	Content   string
	Bot       bool
}

// Scanner classifies messages and auto-flags authors of phishing
// content in the subject registry
type Scanner struct {
	Subjects SubjectSink
	Remover  MessageRemover
}

func NewScanner(subjects SubjectSink, remover MessageRemover) *Scanner {
	return &Scanner{Subjects: subjects, Remover: remover}
}

// Classify inspects message content without side effects. Links are
// checked against the domain allow list first, the remaining text is
// then matched against known scam phrasings.
func Classify(content string) Verdict {
	urls := xurls.Strict.FindAllString(content, -1)
	textOnly := content
	for _, found := range urls {
		textOnly = strings.Replace(textOnly, found, "", 1)
	}

	for _, found := range urls {
		parsed, err := url.Parse(found)
		if err != nil || parsed.Hostname() == "" {
			return Verdict{Suspicious: true, Reason: fmt.Sprintf("Unallowed URL detected: %s", found)}
		}
		if !isAllowedDomain(parsed.Hostname()) {
			return Verdict{Suspicious: true, Reason: fmt.Sprintf("Unallowed URL detected: %s", found)}
		}
	}

	for _, pattern := range keywordPatterns {
		if match := pattern.FindString(textOnly); match != "" {
			return Verdict{Suspicious: true, Reason: fmt.Sprintf("Suspicious keyword found: %q", match)}
		}
	}

	return Verdict{}
}

func isAllowedDomain(domain string) bool {
	normalized := strings.ToLower(strings.TrimPrefix(domain, "www."))
	for _, allowed := range allowedDomains {
		if normalized == allowed || strings.HasSuffix(normalized, "."+allowed) {
			return true
		}
	}
	return false
}

// Scan classifies the message and, on a hit, deletes it and upserts
// the author as an auto-flagged subject. Returns the verdict so the
// caller can decide whether follow-up enforcement applies.
func (s *Scanner) Scan(message Message) (Verdict, error) {
	if message.Bot || message.Content == "" {
		return Verdict{}, nil
	}

	verdict := Classify(message.Content)
	if !verdict.Suspicious {
		return verdict, nil
	}

	log := cache.GetLogger().WithField("module", "antiphish")
	log.WithField("userID", message.UserID).Warn(
		"deleted suspicious message: ", verdict.Reason)

	if s.Remover != nil {
		if err := s.Remover.DeleteMessage(message.ChannelID, message.ID); err != nil {
			log.WithField("messageID", message.ID).Error(
				"failed to delete suspicious message: ", err.Error())
		}
	}

	entry := models.WatchdogUserEntry{
		UserID:       message.UserID,
		LastUsername: message.Username,
		LastAvatar:   message.AvatarURL,
		Status:       models.WatchdogStatusAutoFlagged,
		Reason:       verdict.Reason,
	}
	evidence, err := jsoniter.MarshalToString(Evidence{
		Message:   message.Content,
		ChannelID: message.ChannelID,
	})
	if err != nil {
		return verdict, errors.Wrap(err, "evidence encode failed")
	}
	entry.Evidence = evidence

	return verdict, s.Subjects.Upsert(entry)
}
