package scene

import "time"

// Template is a ready-made scene from the built-in library.
type Template struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Settings    GlobalSettings `json:"globalSettings"`
	module      Module
}

// Kind returns the module kind the template produces.
func (t Template) Kind() Kind { return t.module.Kind() }

// Module returns a copy of the template's module.
func (t Template) Module() Module { return t.module.Clone() }

// Instantiate builds a new scene from the template for the named project.
func (t Template) Instantiate(projectName string, now time.Time) SceneDefinition {
	s := NewScene(projectName, t.Name, t.module.Clone(), now)
	s.GlobalSettings = t.Settings
	return s
}

// FindTemplate looks a template up by id.
func FindTemplate(id string) (Template, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Templates returns the built-in template library.
func Templates() []Template {
	return []Template{
		{
			ID:          "digital-detective",
			Name:        "Digital detective",
			Description: "Looking for a missing person, with incriminating searches",
			Settings:    GlobalSettings{ThemeID: ThemeLight, ZoomLevel: 1, AccentColor: "#4f46e5"},
			module: &SearchModule{
				TriggerText: "sophia laurent missing",
				BrandName:   "Seeker",
				Theme:       "modern",
				Results: []SearchResult{
					{
						ID:      "1",
						Type:    ResultNews,
						Title:   "Sophia Laurent - missing for 72 hours",
						URL:     "https://missingpersons.gov/sophia-laurent",
						Snippet: "Sophia Laurent, 28, was last seen near the Hope Clinic. Any information...",
					},
					{
						ID:      "2",
						Type:    ResultOrganic,
						Title:   "Hope Clinic - controversial clinical trials",
						URL:     "https://medicalethics.org/hope-clinic-investigation",
						Snippet: "The Hope Clinic is under investigation for unauthorized clinical trials...",
					},
				},
			},
		},
		{
			ID:          "direct-threat",
			Name:        "Direct threat",
			Description: "A tense conversation with a mysterious contact",
			Settings:    GlobalSettings{ThemeID: ThemeDark, ZoomLevel: 1, AccentColor: "#dc2626"},
			module: &ChatModule{
				TriggerText:   "Who are you?",
				MessageToType: "Who are you?",
				ContactName:   "Unknown",
				ContactStatus: "Online",
				Theme:         "whatsapp",
				MessagesHistory: []ChatMessage{
					{ID: "1", Text: "You made a big mistake.", Time: "23:47", Status: StatusRead},
					{ID: "2", Text: "You think nobody is watching you?", Time: "23:48", Status: StatusRead},
					{ID: "3", Text: "You have 48h to erase everything.", Time: "23:49", Status: StatusRead},
				},
			},
		},
		{
			ID:          "blackmail",
			Name:        "Financial blackmail",
			Description: "Threatening emails and ransom demands",
			Settings:    GlobalSettings{ThemeID: ThemeLight, ZoomLevel: 1, AccentColor: "#b91c1c"},
			module: &MailModule{
				TriggerText: "I will pay",
				UserEmail:   "m.durand@finance-corp.com",
				UserName:    "Marc Durand",
				Provider:    "gmail",
				Emails: []Email{
					{
						ID:          "1",
						SenderName:  "anonymous",
						SenderEmail: "noreply@protonmail.ch",
						Subject:     "We know everything",
						Preview:     "Transfer 50,000 before Friday or the files go public...",
						Body:        "Transfer 50,000 before Friday or the files go public.\n\nNo police.",
						Date:        "03:12",
						Important:   true,
						Folder:      FolderInbox,
					},
				},
			},
		},
		{
			ID:          "server-breach",
			Name:        "Server breach",
			Description: "A hacker gets into a corporate server",
			Settings:    GlobalSettings{ThemeID: ThemeHacker, ZoomLevel: 1, AccentColor: "#22c55e"},
			module: &TerminalModule{
				TriggerText: "ssh root@10.0.4.12 --exploit cve-2024-3094",
				Color:       "green",
				Lines: []string{
					"Resolving host 10.0.4.12...",
					"Injecting payload into sshd",
					"Escalating privileges",
					"Dumping /etc/shadow",
				},
				TypingSpeed:      SpeedFast,
				ShowProgressBar:  true,
				ProgressDuration: 4,
				FinalMessage:     "ACCESS GRANTED",
				FinalStatus:      FinalSuccess,
			},
		},
	}
}
