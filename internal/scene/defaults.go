package scene

import (
	"time"

	"github.com/google/uuid"
)

// Default identifiers of the demonstration project materialized on first run.
const (
	DemoProjectID = "demo-project"
	DemoSceneID   = "demo-mail"
)

// NewProjectID returns a fresh project identifier.
func NewProjectID() string { return "project-" + uuid.NewString() }

// NewSceneID returns a fresh scene identifier.
func NewSceneID() string { return "scene-" + uuid.NewString() }

// DefaultSettings returns the settings a new scene starts with.
func DefaultSettings() GlobalSettings {
	return GlobalSettings{ThemeID: ThemeLight, ZoomLevel: 1}
}

// DefaultModule returns the starting configuration for a new scene of kind k.
// It returns nil for an unknown kind.
func DefaultModule(k Kind) Module {
	switch k {
	case KindSearch:
		return &SearchModule{BrandName: "Seeker", Results: []SearchResult{}}
	case KindChat:
		return &ChatModule{ContactName: "Contact", MessagesHistory: []ChatMessage{}}
	case KindMail:
		return &MailModule{UserEmail: "user@example.com", Emails: []Email{}}
	case KindTerminal:
		return &TerminalModule{
			TriggerText:      "init.sh",
			Lines:            []string{"Initializing..."},
			Color:            "green",
			TypingSpeed:      SpeedFast,
			ShowProgressBar:  false,
			ProgressDuration: 5,
			FinalMessage:     "Complete",
			FinalStatus:      FinalSuccess,
		}
	}
	return nil
}

// NewScene builds a scene around m with a fresh id and default settings.
func NewScene(projectName, sceneName string, m Module, now time.Time) SceneDefinition {
	return SceneDefinition{
		ID: NewSceneID(),
		Meta: Meta{
			ProjectName: projectName,
			SceneName:   sceneName,
			CreatedAt:   now,
		},
		GlobalSettings: DefaultSettings(),
		Module:         m,
	}
}

// DemoProject is the project shown to a user whose store is empty.
func DemoProject(now time.Time) Project {
	return Project{
		ID:          DemoProjectID,
		Name:        "Demo Project",
		Description: "Discover cinesuite with this sample project",
		CreatedAt:   now,
		UpdatedAt:   now,
		Scenes: []SceneDefinition{
			{
				ID: DemoSceneID,
				Meta: Meta{
					ProjectName: "Demo Project",
					SceneName:   "Confidential Emails",
					CreatedAt:   now,
				},
				GlobalSettings: DefaultSettings(),
				Module: &MailModule{
					TriggerText: "I quit, effective immediately.",
					UserEmail:   "thomas.anderson@metacortex.com",
					Provider:    "gmail",
					Folders:     []MailFolder{},
					Emails: []Email{
						{
							ID:          "1",
							Folder:      FolderInbox,
							Read:        false,
							SenderName:  "HR Director",
							SenderEmail: "hr@metacortex.com",
							Subject:     "Urgent meeting",
							Preview:     "Mr. Anderson, please come to my office...",
							Body:        "Mr. Anderson,\n\nWe have noticed irregularities in your working hours.\nPlease come to my office immediately.\n\nRegards,\nManagement.",
							Date:        "10:42",
							Labels:      []string{},
							Attachments: []Attachment{},
						},
					},
				},
			},
		},
	}
}
