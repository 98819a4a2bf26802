package console

import (
	"encoding/json"
	"fmt"
	"strings"
)

var dotCommands = map[string]bool{"all": true, "count": true, "show": true, "destroy": true, "update": true}

// rewriteDotSyntax converte "<Classe>.<cmd>(<args>)" para "<cmd> <Classe> <args>".
// Linhas que não seguem esse formato voltam intactas.
func rewriteDotSyntax(line string) string {
	dot := strings.Index(line, ".")
	open := strings.Index(line, "(")
	end := strings.LastIndex(line, ")")
	if dot < 0 || open < dot || end < open {
		return line
	}

	class := line[:dot]
	command := line[dot+1 : open]
	if !dotCommands[command] {
		return line
	}

	inner := strings.TrimSpace(line[open+1 : end])
	if inner == "" {
		return strings.TrimSpace(command + " " + class)
	}

	id, rest, _ := strings.Cut(inner, ",")
	id = strings.Trim(strings.TrimSpace(id), `"'`)
	rest = strings.TrimSpace(rest)

	if rest == "" {
		return strings.Join([]string{command, class, id}, " ")
	}
	if strings.HasPrefix(rest, "{") && strings.HasSuffix(rest, "}") {
		return strings.Join([]string{command, class, id, rest}, " ")
	}

	// update(<id>, "<attr>", "<valor>"): só as vírgulas fora de aspas separam argumentos
	return strings.Join(append([]string{command, class, id}, splitArgs(rest)...), " ")
}

// splitArgs quebra nas vírgulas que não estão dentro de aspas simples ou duplas.
func splitArgs(text string) []string {
	var (
		out   []string
		quote rune
		start int
	)
	for i, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ',':
			out = append(out, strings.TrimSpace(text[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(text[start:]))
}

// parseDict aceita um dicionário com aspas simples ou duplas: {'name': "x", 'rooms': 3}.
func parseDict(text string) (map[string]any, error) {
	normalized := strings.ReplaceAll(text, "'", `"`)

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.UseNumber()

	var out map[string]any
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid dictionary %s: %w", text, err)
	}
	return out, nil
}

// parseParam interpreta um parâmetro key=value do create. ok é false quando não há "=".
func parseParam(param string) (key string, value string, ok bool) {
	key, value, ok = strings.Cut(param, "=")
	if !ok || key == "" {
		return "", "", false
	}

	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = value[1 : len(value)-1]
		value = strings.ReplaceAll(value, `\"`, `"`)
	}
	value = strings.ReplaceAll(value, "_", " ")

	return key, value, true
}

// splitUpdateArgs separa "<attr> <valor>" respeitando aspas em ambos.
func splitUpdateArgs(text string) (name string, value string) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, `"`) {
		if end := strings.Index(text[1:], `"`); end >= 0 {
			name = text[1 : end+1]
			text = strings.TrimSpace(text[end+2:])
		}
	} else {
		name, text, _ = strings.Cut(text, " ")
		text = strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, `"`) {
		if end := strings.Index(text[1:], `"`); end >= 0 {
			return name, text[1 : end+1]
		}
	}

	value, _, _ = strings.Cut(text, " ")
	return name, value
}

// renderList renderiza a listagem do "all" no formato ['...', '...'].
func renderList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, "'"+item+"'")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
