// Package export renders a chatbot as a standalone HTML document: the
// bot configuration plus a minimal chat loop that talks to the model API
// directly, so the file works without this server.
package export

import (
	"encoding/json"
	"html/template"
	"io"

	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/prompt"
)

var pageTmpl = template.Must(template.New("export").Parse(pageHTML))

type pageData struct {
	Name              string
	BotJSON           template.JS
	SystemInstruction template.JS
	APIKey            template.JS
	Model             string
}

// Render writes the standalone document. The API key is embedded verbatim
// so the artifact can call the provider on its own; callers decide whether
// that trade-off is acceptable for their key.
func Render(w io.Writer, bot *model.SavedChatbot, apiKey, modelName string) error {
	shared := *bot
	shared.History = nil
	botJSON, err := json.Marshal(&shared)
	if err != nil {
		return err
	}
	instruction, err := json.Marshal(prompt.ForChatbot(bot.Name, bot.Persona, bot.KnowledgeScope, bot.ContextText))
	if err != nil {
		return err
	}
	key, err := json.Marshal(apiKey)
	if err != nil {
		return err
	}
	return pageTmpl.Execute(w, pageData{
		Name:              bot.Name,
		BotJSON:           template.JS(botJSON),
		SystemInstruction: template.JS(instruction),
		APIKey:            template.JS(key),
		Model:             modelName,
	})
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Chat with {{.Name}}</title>
<style>
  body { font-family: sans-serif; margin: 0; background: #0f172a; color: #e2e8f0; display: flex; flex-direction: column; height: 100vh; }
  header { padding: 12px 16px; background: #1e293b; border-bottom: 1px solid #334155; }
  header h2 { margin: 0; font-size: 16px; }
  header p { margin: 2px 0 0; font-size: 12px; color: #94a3b8; }
  #log { flex: 1; overflow-y: auto; padding: 16px; }
  .msg { max-width: 80%; padding: 10px 14px; border-radius: 16px; margin-bottom: 10px; white-space: pre-wrap; }
  .bot { background: #334155; margin-right: auto; }
  .user { background: #0e7490; margin-left: auto; }
  form { display: flex; gap: 8px; padding: 12px; background: #1e293b; border-top: 1px solid #334155; }
  input { flex: 1; border: 0; border-radius: 20px; padding: 10px 16px; background: #334155; color: #e2e8f0; }
  button { border: 0; border-radius: 20px; padding: 10px 18px; background: #0891b2; color: white; cursor: pointer; }
  button:disabled { background: #475569; cursor: not-allowed; }
</style>
</head>
<body>
<header><h2>{{.Name}}</h2><p>Exported chatbot</p></header>
<div id="log"></div>
<form id="f"><input id="q" placeholder="Ask a question..." autocomplete="off"><button id="s" type="submit">Send</button></form>
<script>
const API_KEY = {{.APIKey}};
const MODEL = "{{.Model}}";
const chatbot = {{.BotJSON}};
const systemInstruction = {{.SystemInstruction}};
const log = document.getElementById('log');
const form = document.getElementById('f');
const input = document.getElementById('q');
const send = document.getElementById('s');
let history = [];
let busy = false;

function add(text, who) {
  const d = document.createElement('div');
  d.className = 'msg ' + who;
  d.textContent = text;
  log.appendChild(d);
  log.scrollTop = log.scrollHeight;
}

async function callModel() {
  const url = 'https://generativelanguage.googleapis.com/v1beta/models/' + MODEL + ':generateContent?key=' + API_KEY;
  const body = {
    systemInstruction: { parts: [{ text: systemInstruction }] },
    contents: history
  };
  const resp = await fetch(url, { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify(body) });
  if (!resp.ok) {
    const err = await resp.json().catch(() => ({}));
    throw new Error((err.error && err.error.message) || 'Failed to get a response.');
  }
  const data = await resp.json();
  return data.candidates[0].content.parts[0].text;
}

form.addEventListener('submit', async (e) => {
  e.preventDefault();
  const q = input.value.trim();
  if (!q || busy) return;
  add(q, 'user');
  history.push({ role: 'user', parts: [{ text: q }] });
  input.value = '';
  busy = true; send.disabled = true;
  try {
    const reply = await callModel();
    history.push({ role: 'model', parts: [{ text: reply }] });
    add(reply, 'bot');
  } catch (err) {
    add('Sorry, an error occurred: ' + err.message, 'bot');
  } finally {
    busy = false; send.disabled = false;
  }
});

if (!API_KEY) {
  add('Error: no API key is configured for this exported chatbot.', 'bot');
  send.disabled = true;
} else {
  add("Hello there! I'm " + chatbot.name + ", your friendly guide for this document. ✨ What's on your mind? 😊", 'bot');
}
</script>
</body>
</html>
`
