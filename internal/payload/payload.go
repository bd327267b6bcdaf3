// Package payload extracts scannable text from the request bodies a gateway
// sees: raw prompts, chat-completion JSON and YAML prompt files.
//
// Issue offsets returned by the engine refer to the extracted text, not the
// original bytes.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

const (
	Auto Format = "auto"
	Raw  Format = "raw"
	Chat Format = "chat"
	YAML Format = "yaml"
)

// ErrUnknownFormat is returned for a format name outside the constants above.
var ErrUnknownFormat = errors.New("unknown payload format")

// ParseFormat maps a flag value to a Format; empty selects Auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Auto, nil
	case Auto, Raw, Chat, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Request is the text to scan plus request metadata for context-dependent
// detectors.
type Request struct {
	Text string
	Meta map[string]string
}

// Message is one chat turn. Content is either a string or a list of typed
// parts; only text parts are kept.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type chatBody struct {
	Model    string    `json:"model"`
	User     string    `json:"user"`
	Messages []Message `json:"messages"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Extract decodes b according to f.
func Extract(b []byte, f Format) (Request, error) {
	switch f {
	case Raw:
		return Request{Text: string(b)}, nil
	case Chat:
		return chat(b)
	case YAML:
		return yamlScalars(b)
	case Auto, "":
		trimmed := bytes.TrimSpace(b)
		if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
			if req, err := chat(trimmed); err == nil {
				return req, nil
			}
		}
		return Request{Text: string(b)}, nil
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func chat(b []byte) (Request, error) {
	var body chatBody
	if err := json.Unmarshal(b, &body); err != nil {
		return Request{}, fmt.Errorf("chat payload: %w", err)
	}
	if body.Messages == nil {
		return Request{}, errors.New("chat payload: no messages")
	}
	var sb strings.Builder
	roles := make([]string, 0, len(body.Messages))
	for _, m := range body.Messages {
		sb.WriteString(messageText(m.Content))
		sb.WriteByte(' ')
		if m.Role != "" {
			roles = append(roles, m.Role)
		}
	}
	meta := map[string]string{"messages": fmt.Sprint(len(body.Messages))}
	if body.Model != "" {
		meta["model"] = body.Model
	}
	if body.User != "" {
		meta["user"] = body.User
	}
	if len(roles) > 0 {
		meta["roles"] = strings.Join(roles, ",")
	}
	return Request{Text: sb.String(), Meta: meta}, nil
}

func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var texts []string
	for _, p := range parts {
		if p.Type == "text" || (p.Type == "" && p.Text != "") {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// yamlScalars flattens every scalar value, one per line. The dotted key
// paths are returned as metadata keys with their line numbers.
func yamlScalars(b []byte) (Request, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return Request{}, fmt.Errorf("yaml payload: %w", err)
	}
	var (
		lines []string
		meta  = map[string]string{}
		walk  func(n *yaml.Node, path []string)
	)
	walk = func(n *yaml.Node, path []string) {
		switch n.Kind {
		case yaml.DocumentNode, yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c, path)
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				walk(n.Content[i+1], append(path, n.Content[i].Value))
			}
		case yaml.ScalarNode:
			if n.Value == "" {
				return
			}
			lines = append(lines, n.Value)
			if len(path) > 0 {
				meta[strings.Join(path, ".")] = fmt.Sprint(n.Line)
			}
		}
	}
	walk(&root, nil)
	if len(meta) == 0 {
		meta = nil
	}
	return Request{Text: strings.Join(lines, "\n"), Meta: meta}, nil
}
