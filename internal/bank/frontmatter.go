package bank

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fmDelim = "---"

// splitFrontMatter separates a leading "---" delimited block from the rest
// of doc. ok is false when doc has no front-matter.
func splitFrontMatter(doc string) (meta, body string, ok bool) {
	text := strings.TrimPrefix(doc, "\ufeff")
	if !strings.HasPrefix(text, fmDelim+"\n") && !strings.HasPrefix(text, fmDelim+"\r\n") {
		return "", doc, false
	}
	rest := text[strings.Index(text, "\n")+1:]
	end := closingDelim(rest)
	if end < 0 {
		return "", doc, false
	}
	meta = rest[:end]
	body = rest[end+len(fmDelim):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return meta, body, true
}

// closingDelim finds the "---" line that ends the front-matter.
func closingDelim(s string) int {
	if strings.HasPrefix(s, fmDelim) {
		return 0
	}
	i := strings.Index(s, "\n"+fmDelim)
	if i < 0 {
		return -1
	}
	return i + 1
}

// ParseFrontMatter decodes the YAML front-matter of doc and returns it with
// the remaining body. A document without front-matter yields nil meta.
func ParseFrontMatter(doc string) (map[string]any, string, error) {
	raw, body, ok := splitFrontMatter(doc)
	if !ok {
		return nil, doc, nil
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, body, fmt.Errorf("parsing front-matter: %w", err)
	}
	return meta, body, nil
}

// StripFrontMatter returns doc without its front-matter block.
func StripFrontMatter(doc string) string {
	_, body, _ := splitFrontMatter(doc)
	return body
}

// setFrontMatterField sets key to value in doc's front-matter, keeping the
// order of the other keys. Documents without front-matter, or whose
// front-matter is not a mapping, are returned unchanged.
func setFrontMatterField(doc, key, value string) (string, error) {
	raw, body, ok := splitFrontMatter(doc)
	if !ok {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return doc, fmt.Errorf("parsing front-matter: %w", err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return doc, nil
	}
	mapping := root.Content[0]

	updated := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			updated = true
			break
		}
	}
	if !updated {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return doc, fmt.Errorf("encoding front-matter: %w", err)
	}
	_ = enc.Close()

	return fmDelim + "\n" + buf.String() + fmDelim + "\n" + body, nil
}
