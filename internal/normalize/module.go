// Package normalize coerces untyped, possibly incomplete module payloads
// (generated or imported) into complete typed modules. Missing or mistyped
// fields receive defaults; nothing here returns an error.
package normalize

import (
	"encoding/json"
	"fmt"
	"html"

	"github.com/starford/cinesuite/internal/scene"
)

// Defaults applied to incomplete payloads.
const (
	DefaultBrandName     = "SearchEngine"
	DefaultSearchTheme   = "modern"
	DefaultPageLayout    = "article"
	DefaultContactName   = "Contact"
	DefaultContactStatus = "Online"
	DefaultChatTheme     = "whatsapp"
	DefaultMessageTime   = "12:00"
	DefaultUserEmail     = "user@example.com"
	DefaultProvider      = "gmail"
	DefaultSenderName    = "Unknown"
	DefaultSenderEmail   = "unknown@example.com"
	DefaultMailDate      = "Today"
	DefaultTerminalColor = "green"
	DefaultFinalMessage  = "Complete"
	DefaultProgressSecs  = 5

	previewRunes = 50
)

// Module builds a complete module of kind k from raw. It returns nil only
// for an unknown kind.
func Module(k scene.Kind, raw map[string]any) scene.Module {
	if raw == nil {
		raw = obj{}
	}
	switch k {
	case scene.KindSearch:
		return Search(raw)
	case scene.KindChat:
		return Chat(raw)
	case scene.KindMail:
		return Mail(raw)
	case scene.KindTerminal:
		return Terminal(raw)
	}
	return nil
}

// FromJSON decodes data as an object and normalizes it as kind k.
func FromJSON(k scene.Kind, data []byte) (scene.Module, error) {
	var raw obj
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("normalize: decode payload: %w", err)
	}
	m := Module(k, raw)
	if m == nil {
		return nil, fmt.Errorf("normalize: unknown module type %q", k)
	}
	return m, nil
}

// Search completes a search payload.
func Search(raw map[string]any) *scene.SearchModule {
	m := &scene.SearchModule{
		TriggerText:  str(raw, "triggerText", ""),
		BrandName:    str(raw, "brandName", DefaultBrandName),
		BrandLogoURL: str(raw, "brandLogoUrl", ""),
		Theme:        str(raw, "theme", DefaultSearchTheme),
		Results:      []scene.SearchResult{},
	}
	for _, r := range objects(raw, "results") {
		m.Results = append(m.Results, searchResult(r))
	}
	return m
}

func searchResult(r obj) scene.SearchResult {
	title := str(r, "title", "")
	snippet := str(r, "snippet", "")
	out := scene.SearchResult{
		ID:       str(r, "id", newID("result")),
		Type:     str(r, "type", scene.ResultOrganic),
		Title:    title,
		URL:      str(r, "url", ""),
		Snippet:  snippet,
		Date:     str(r, "date", ""),
		ImageURL: str(r, "imageUrl", ""),
		Favicon:  str(r, "favicon", ""),
		Author:   str(r, "author", ""),
		ReadTime: text(r, "readTime"),
		Price:    text(r, "price"),
		PageContent: str(r, "pageContent",
			"<h1>"+html.EscapeString(title)+"</h1><p>"+html.EscapeString(snippet)+"</p>"),
	}
	if f, ok := number(r, "rating"); ok {
		out.Rating = &f
	}
	if pc, ok := object(r, "pageConfig"); ok {
		out.PageConfig = pageConfig(pc)
	}
	return out
}

func pageConfig(pc obj) *scene.PageConfig {
	out := &scene.PageConfig{
		Layout:        str(pc, "layout", DefaultPageLayout),
		HeaderImage:   str(pc, "headerImage", ""),
		ContentImages: []scene.ContentImage{},
	}
	for _, img := range objects(pc, "contentImages") {
		url := str(img, "url", "")
		if url == "" {
			continue
		}
		out.ContentImages = append(out.ContentImages, scene.ContentImage{
			URL:      url,
			Caption:  str(img, "caption", ""),
			Position: str(img, "position", ""),
			Width:    str(img, "width", ""),
		})
	}
	if st, ok := object(pc, "style"); ok {
		out.Style = &scene.PageStyle{
			PrimaryColor: str(st, "primaryColor", ""),
			Font:         str(st, "font", ""),
			TextSize:     str(st, "textSize", ""),
			Spacing:      str(st, "spacing", ""),
		}
	}
	if sb, ok := object(pc, "sidebar"); ok {
		out.Sidebar = &scene.PageSidebar{
			Type:    str(sb, "type", ""),
			Content: str(sb, "content", ""),
		}
	}
	if md, ok := object(pc, "metadata"); ok {
		meta := &scene.PageMetadata{
			Category:     str(md, "category", ""),
			Tags:         strs(md, "tags"),
			Views:        text(md, "views"),
			LastModified: str(md, "lastModified", ""),
		}
		if f, ok := number(md, "comments"); ok {
			n := int(f)
			meta.Comments = &n
		}
		out.Metadata = meta
	}
	return out
}

// Chat completes a chat payload. The trigger falls back to messageToType and
// both fields end up equal.
func Chat(raw map[string]any) *scene.ChatModule {
	trigger := str(raw, "triggerText", str(raw, "messageToType", ""))
	m := &scene.ChatModule{
		TriggerText:     trigger,
		MessageToType:   trigger,
		ContactName:     str(raw, "contactName", DefaultContactName),
		ContactAvatar:   str(raw, "contactAvatar", ""),
		ContactPhone:    str(raw, "contactPhone", ""),
		ContactStatus:   str(raw, "contactStatus", DefaultContactStatus),
		IsTyping:        boolean(raw, "isTyping", false),
		Theme:           str(raw, "theme", DefaultChatTheme),
		MessagesHistory: []scene.ChatMessage{},
	}
	for _, msg := range objects(raw, "messagesHistory") {
		m.MessagesHistory = append(m.MessagesHistory, scene.ChatMessage{
			ID:        str(msg, "id", newID("msg")),
			IsMe:      boolean(msg, "isMe", false),
			Text:      str(msg, "text", ""),
			Time:      str(msg, "time", DefaultMessageTime),
			Status:    str(msg, "status", scene.StatusRead),
			Edited:    boolean(msg, "edited", false),
			ReplyTo:   str(msg, "replyTo", ""),
			MediaURL:  str(msg, "mediaUrl", ""),
			MediaType: str(msg, "mediaType", ""),
			Reactions: strs(msg, "reactions"),
		})
	}
	return m
}

// Mail completes a mail payload.
func Mail(raw map[string]any) *scene.MailModule {
	m := &scene.MailModule{
		TriggerText:   str(raw, "triggerText", ""),
		UserEmail:     str(raw, "userEmail", DefaultUserEmail),
		UserName:      str(raw, "userName", ""),
		UserAvatar:    str(raw, "userAvatar", ""),
		Provider:      str(raw, "provider", DefaultProvider),
		Emails:        []scene.Email{},
		ActiveEmailID: str(raw, "activeEmailId", ""),
		Folders:       []scene.MailFolder{},
		InboxCount:    integer(raw, "inboxCount", 0),
	}
	for _, e := range objects(raw, "emails") {
		m.Emails = append(m.Emails, email(e))
	}
	for _, f := range objects(raw, "folders") {
		name := str(f, "name", "")
		if name == "" {
			continue
		}
		m.Folders = append(m.Folders, scene.MailFolder{
			Name:  name,
			Count: integer(f, "count", 0),
			Icon:  str(f, "icon", ""),
		})
	}
	return m
}

func email(e obj) scene.Email {
	body := str(e, "body", "")
	out := scene.Email{
		ID:          str(e, "id", newID("mail")),
		SenderName:  str(e, "senderName", DefaultSenderName),
		SenderEmail: str(e, "senderEmail", DefaultSenderEmail),
		Subject:     str(e, "subject", ""),
		Preview:     str(e, "preview", preview(body)),
		Body:        body,
		Date:        str(e, "date", DefaultMailDate),
		Read:        boolean(e, "read", true),
		Starred:     boolean(e, "starred", false),
		Important:   boolean(e, "important", false),
		Labels:      strs(e, "labels"),
		Attachments: []scene.Attachment{},
		ThreadID:    str(e, "threadId", ""),
		Folder:      str(e, "folder", scene.FolderInbox),
	}
	for _, a := range objects(e, "attachments") {
		out.Attachments = append(out.Attachments, scene.Attachment{
			Name: str(a, "name", "attachment"),
			Size: text(a, "size"),
			Type: str(a, "type", ""),
		})
	}
	return out
}

// Terminal completes a terminal payload.
func Terminal(raw map[string]any) *scene.TerminalModule {
	speed := str(raw, "typingSpeed", scene.SpeedFast)
	switch speed {
	case scene.SpeedSlow, scene.SpeedFast, scene.SpeedInstant:
	default:
		speed = scene.SpeedFast
	}
	status := str(raw, "finalStatus", scene.FinalSuccess)
	if status != scene.FinalError {
		status = scene.FinalSuccess
	}
	progress := float64(DefaultProgressSecs)
	if f, ok := number(raw, "progressDuration"); ok && f >= 0 {
		progress = min(f, scene.MaxProgressDuration)
	}
	return &scene.TerminalModule{
		TriggerText:      str(raw, "triggerText", ""),
		Color:            str(raw, "color", DefaultTerminalColor),
		Lines:            strs(raw, "lines"),
		TypingSpeed:      speed,
		ShowProgressBar:  boolean(raw, "showProgressBar", false),
		ProgressDuration: progress,
		FinalMessage:     str(raw, "finalMessage", DefaultFinalMessage),
		FinalStatus:      status,
	}
}
