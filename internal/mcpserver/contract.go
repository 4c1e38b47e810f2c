package mcpserver

// SceneFormatContract describes the transfer document that LLM consumers
// should produce when creating or validating scenes.
const SceneFormatContract = `# cinesuite Scene Format Contract

A scene is one JSON (or YAML) document holding a single fake on-screen
interface. Exactly one module is present and its ` + "`" + `type` + "`" + ` field selects the
interface.

## Structure

` + "```" + `json
{
  "id": "scene-...",                  // OPTIONAL - reassigned when missing or taken
  "meta": {
    "projectName": "Heist",           // OPTIONAL - overwritten on import
    "sceneName": "Opening chat",      // OPTIONAL - used for the export file name
    "createdAt": "2025-01-15T10:00:00Z"
  },
  "globalSettings": {
    "themeId": "light",               // light | dark | retro | hacker
    "zoomLevel": 1,                   // factor 0.5-2 or percentage 50-200
    "accentColor": "#4f46e5"
  },
  "module": { "type": "chat", ... }
}
` + "```" + `

## Modules

Every module has ` + "`" + `triggerText` + "`" + `: the text the actor pretends to type. Any key
press reveals the next character; the whole text must be revealed before it
is committed.

- **search**: ` + "`" + `brandName` + "`" + `, ` + "`" + `theme` + "`" + `, ` + "`" + `results` + "`" + ` (id, type organic|ad|news|video|image|featured,
  title, url, snippet, optional pageContent HTML and pageConfig).
- **chat**: ` + "`" + `contactName` + "`" + `, ` + "`" + `contactStatus` + "`" + `, ` + "`" + `messagesHistory` + "`" + ` (id, text, isMe, time,
  status sent|delivered|read, reactions). ` + "`" + `messageToType` + "`" + ` equals triggerText.
- **mail**: ` + "`" + `userEmail` + "`" + `, ` + "`" + `userName` + "`" + `, ` + "`" + `provider` + "`" + `, ` + "`" + `emails` + "`" + ` (id, folder
  inbox|sent|trash|spam|drafts, senderName, senderEmail, subject, preview, body,
  date, read).
- **terminal**: ` + "`" + `color` + "`" + ` (green|red|blue|amber), ` + "`" + `lines` + "`" + ` (strings),
  ` + "`" + `typingSpeed` + "`" + ` slow|fast|instant, ` + "`" + `showProgressBar` + "`" + `, ` + "`" + `progressDuration` + "`" + ` (seconds),
  ` + "`" + `finalMessage` + "`" + `, ` + "`" + `finalStatus` + "`" + ` success|error.

## Rules

1. Missing fields get defaults on import; unknown fields are dropped.
2. Ids inside one list are unique.
3. Images are absolute http(s) URLs, site paths under /images/, or data URIs.
   Run the ` + "`" + `inline_assets` + "`" + ` tool to make a scene play offline.
4. Call ` + "`" + `validate_scene` + "`" + ` before ` + "`" + `create_scene` + "`" + `; strict imports refuse any issue.
`
