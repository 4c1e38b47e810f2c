package scene

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the discriminator tag of a Module.
type Kind string

// Module kinds.
const (
	KindSearch   Kind = "search"
	KindChat     Kind = "chat"
	KindMail     Kind = "mail"
	KindTerminal Kind = "terminal"
)

// Kinds lists every module kind in display order.
var Kinds = []Kind{KindSearch, KindChat, KindMail, KindTerminal}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSearch, KindChat, KindMail, KindTerminal:
		return true
	}
	return false
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown module type %q", s)
	}
	return k, nil
}

// ErrMissingType is returned when a module document carries no type tag.
var ErrMissingType = errors.New("module type is missing")

// Module is the closed union of fake interfaces a scene can render. The set of
// implementations is fixed to the four variants in this package; a module's
// kind never changes, switching kind means building a new value.
type Module interface {
	Kind() Kind
	// Trigger is the text revealed by magic typing.
	Trigger() string
	Clone() Module
	sealed()
}

// DecodeModule decodes a JSON module document, dispatching on its "type" tag only.
func DecodeModule(data []byte) (Module, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	var m Module
	switch head.Type {
	case KindSearch:
		m = &SearchModule{}
	case KindChat:
		m = &ChatModule{}
	case KindMail:
		m = &MailModule{}
	case KindTerminal:
		m = &TerminalModule{}
	case "":
		return nil, ErrMissingType
	default:
		return nil, fmt.Errorf("unknown module type %q", head.Type)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode %s module: %w", head.Type, err)
	}
	return m, nil
}

// WithTrigger returns a copy of m whose trigger text is text. For chat modules
// the pending outgoing message follows the trigger text.
func WithTrigger(m Module, text string) Module {
	switch v := m.Clone().(type) {
	case *SearchModule:
		v.TriggerText = text
		return v
	case *ChatModule:
		v.TriggerText = text
		v.MessageToType = text
		return v
	case *MailModule:
		v.TriggerText = text
		return v
	case *TerminalModule:
		v.TriggerText = text
		return v
	}
	return m
}

func marshalTagged(kind Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(kind)
	// body is always an object here; splice the tag in as the first key.
	if len(body) == 2 {
		return []byte(`{"type":` + string(tag) + `}`), nil
	}
	out := make([]byte, 0, len(body)+len(tag)+8)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

// --- Search ---

// Search result types.
const (
	ResultOrganic  = "organic"
	ResultAd       = "ad"
	ResultNews     = "news"
	ResultVideo    = "video"
	ResultImage    = "image"
	ResultFeatured = "featured"
)

// SearchModule is a fake search engine.
type SearchModule struct {
	TriggerText  string         `json:"triggerText"`
	BrandName    string         `json:"brandName"`
	BrandLogoURL string         `json:"brandLogoUrl,omitempty"`
	Theme        string         `json:"theme,omitempty"`
	Results      []SearchResult `json:"results"`
}

// SearchResult is one entry of a results page, optionally with a fake page body.
type SearchResult struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Snippet     string      `json:"snippet"`
	Date        string      `json:"date,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Favicon     string      `json:"favicon,omitempty"`
	Author      string      `json:"author,omitempty"`
	ReadTime    string      `json:"readTime,omitempty"`
	Rating      *float64    `json:"rating,omitempty"`
	Price       string      `json:"price,omitempty"`
	PageContent string      `json:"pageContent,omitempty"`
	PageConfig  *PageConfig `json:"pageConfig,omitempty"`
}

// PageConfig customizes the fake web page opened from a result.
type PageConfig struct {
	Layout        string         `json:"layout,omitempty"`
	HeaderImage   string         `json:"headerImage,omitempty"`
	ContentImages []ContentImage `json:"contentImages"`
	Style         *PageStyle     `json:"style,omitempty"`
	Sidebar       *PageSidebar   `json:"sidebar,omitempty"`
	Metadata      *PageMetadata  `json:"metadata,omitempty"`
}

// ContentImage is an image placed inside a fake page.
type ContentImage struct {
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	Position string `json:"position,omitempty"`
	Width    string `json:"width,omitempty"`
}

// PageStyle overrides the typography of a fake page.
type PageStyle struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	Font         string `json:"font,omitempty"`
	TextSize     string `json:"textSize,omitempty"`
	Spacing      string `json:"spacing,omitempty"`
}

// PageSidebar describes the side column of a fake page.
type PageSidebar struct {
	Type    string `json:"type,omitempty"`
	Content string `json:"content,omitempty"`
}

// PageMetadata is extra page chrome (category, tags, counters).
type PageMetadata struct {
	Category     string   `json:"category,omitempty"`
	Tags         []string `json:"tags"`
	Views        string   `json:"views,omitempty"`
	Comments     *int     `json:"comments,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
}

func (m *SearchModule) Kind() Kind      { return KindSearch }
func (m *SearchModule) Trigger() string { return m.TriggerText }
func (*SearchModule) sealed()           {}

// Clone returns a deep copy.
func (m *SearchModule) Clone() Module {
	out := *m
	if m.Results != nil {
		out.Results = make([]SearchResult, len(m.Results))
		for i, r := range m.Results {
			out.Results[i] = r.clone()
		}
	}
	return &out
}

func (r SearchResult) clone() SearchResult {
	out := r
	if r.Rating != nil {
		v := *r.Rating
		out.Rating = &v
	}
	if r.PageConfig != nil {
		pc := *r.PageConfig
		pc.ContentImages = cloneSlice(r.PageConfig.ContentImages)
		if pc.Style != nil {
			st := *pc.Style
			pc.Style = &st
		}
		if pc.Sidebar != nil {
			sb := *pc.Sidebar
			pc.Sidebar = &sb
		}
		if pc.Metadata != nil {
			md := *pc.Metadata
			md.Tags = cloneSlice(md.Tags)
			if md.Comments != nil {
				c := *md.Comments
				md.Comments = &c
			}
			pc.Metadata = &md
		}
		out.PageConfig = &pc
	}
	return out
}

// MarshalJSON encodes the module with its type tag.
func (m *SearchModule) MarshalJSON() ([]byte, error) {
	type alias SearchModule
	return marshalTagged(KindSearch, (*alias)(m))
}

// --- Chat ---

// Chat delivery states.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// ChatModule is a fake messaging app.
type ChatModule struct {
	TriggerText     string        `json:"triggerText"`
	ContactName     string        `json:"contactName"`
	ContactAvatar   string        `json:"contactAvatar,omitempty"`
	ContactPhone    string        `json:"contactPhone,omitempty"`
	ContactStatus   string        `json:"contactStatus,omitempty"`
	IsTyping        bool          `json:"isTyping,omitempty"`
	Theme           string        `json:"theme,omitempty"`
	MessagesHistory []ChatMessage `json:"messagesHistory"`
	// MessageToType duplicates TriggerText by convention.
	MessageToType string `json:"messageToType"`
}

// ChatMessage is one bubble of the conversation.
type ChatMessage struct {
	ID        string   `json:"id"`
	IsMe      bool     `json:"isMe"`
	Text      string   `json:"text"`
	Time      string   `json:"time"`
	Status    string   `json:"status,omitempty"`
	Edited    bool     `json:"edited,omitempty"`
	ReplyTo   string   `json:"replyTo,omitempty"`
	MediaURL  string   `json:"mediaUrl,omitempty"`
	MediaType string   `json:"mediaType,omitempty"`
	Reactions []string `json:"reactions"`
}

func (m *ChatModule) Kind() Kind      { return KindChat }
func (m *ChatModule) Trigger() string { return m.TriggerText }
func (*ChatModule) sealed()           {}

// Clone returns a deep copy.
func (m *ChatModule) Clone() Module {
	out := *m
	if m.MessagesHistory != nil {
		out.MessagesHistory = make([]ChatMessage, len(m.MessagesHistory))
		for i, msg := range m.MessagesHistory {
			msg.Reactions = cloneSlice(msg.Reactions)
			out.MessagesHistory[i] = msg
		}
	}
	return &out
}

// MarshalJSON encodes the module with its type tag.
func (m *ChatModule) MarshalJSON() ([]byte, error) {
	type alias ChatModule
	return marshalTagged(KindChat, (*alias)(m))
}

// --- Mail ---

// Mail folders.
const (
	FolderInbox  = "inbox"
	FolderSent   = "sent"
	FolderTrash  = "trash"
	FolderSpam   = "spam"
	FolderDrafts = "drafts"
)

// MailModule is a fake mailbox.
type MailModule struct {
	TriggerText   string       `json:"triggerText"`
	UserEmail     string       `json:"userEmail"`
	UserName      string       `json:"userName,omitempty"`
	UserAvatar    string       `json:"userAvatar,omitempty"`
	Provider      string       `json:"provider,omitempty"`
	Emails        []Email      `json:"emails"`
	ActiveEmailID string       `json:"activeEmailId,omitempty"`
	Folders       []MailFolder `json:"folders"`
	InboxCount    int          `json:"inboxCount,omitempty"`
}

// Email is one message in the mailbox.
type Email struct {
	ID          string       `json:"id"`
	SenderName  string       `json:"senderName"`
	SenderEmail string       `json:"senderEmail"`
	Subject     string       `json:"subject"`
	Preview     string       `json:"preview"`
	Body        string       `json:"body"`
	Date        string       `json:"date"`
	Read        bool         `json:"read"`
	Starred     bool         `json:"starred,omitempty"`
	Important   bool         `json:"important,omitempty"`
	Labels      []string     `json:"labels"`
	Attachments []Attachment `json:"attachments"`
	ThreadID    string       `json:"threadId,omitempty"`
	Folder      string       `json:"folder"`
}

// Attachment is a fake file attached to an email.
type Attachment struct {
	Name string `json:"name"`
	Size string `json:"size"`
	Type string `json:"type"`
}

// MailFolder is a custom sidebar folder.
type MailFolder struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Icon  string `json:"icon,omitempty"`
}

func (m *MailModule) Kind() Kind      { return KindMail }
func (m *MailModule) Trigger() string { return m.TriggerText }
func (*MailModule) sealed()           {}

// Clone returns a deep copy.
func (m *MailModule) Clone() Module {
	out := *m
	if m.Emails != nil {
		out.Emails = make([]Email, len(m.Emails))
		for i, e := range m.Emails {
			e.Labels = cloneSlice(e.Labels)
			e.Attachments = cloneSlice(e.Attachments)
			out.Emails[i] = e
		}
	}
	out.Folders = cloneSlice(m.Folders)
	return &out
}

// MarshalJSON encodes the module with its type tag.
func (m *MailModule) MarshalJSON() ([]byte, error) {
	type alias MailModule
	return marshalTagged(KindMail, (*alias)(m))
}

// --- Terminal ---

// Terminal typing speeds.
const (
	SpeedSlow    = "slow"
	SpeedFast    = "fast"
	SpeedInstant = "instant"
)

// Terminal final statuses.
const (
	FinalSuccess = "success"
	FinalError   = "error"
)

// MaxProgressDuration is the longest terminal progress bar, in seconds.
const MaxProgressDuration = 3600.0

// TerminalModule is a fake terminal that scrolls log lines once triggered.
type TerminalModule struct {
	TriggerText      string   `json:"triggerText"`
	Color            string   `json:"color"`
	Lines            []string `json:"lines"`
	TypingSpeed      string   `json:"typingSpeed"`
	ShowProgressBar  bool     `json:"showProgressBar"`
	ProgressDuration float64  `json:"progressDuration"`
	FinalMessage     string   `json:"finalMessage"`
	FinalStatus      string   `json:"finalStatus"`
}

func (m *TerminalModule) Kind() Kind      { return KindTerminal }
func (m *TerminalModule) Trigger() string { return m.TriggerText }
func (*TerminalModule) sealed()           {}

// Clone returns a deep copy.
func (m *TerminalModule) Clone() Module {
	out := *m
	out.Lines = cloneSlice(m.Lines)
	return &out
}

// MarshalJSON encodes the module with its type tag.
func (m *TerminalModule) MarshalJSON() ([]byte, error) {
	type alias TerminalModule
	return marshalTagged(KindTerminal, (*alias)(m))
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
