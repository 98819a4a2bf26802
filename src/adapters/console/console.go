package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
)

const Prompt = "(hbnb) "

const (
	msgClassMissing     = "** class name missing **"
	msgClassUnknown     = "** class doesn't exist **"
	msgIDMissing        = "** instance id missing **"
	msgNoInstance       = "** no instance found **"
	msgAttributeMissing = "** attribute name missing **"
	msgValueMissing     = "** value missing **"
	msgAttributeUnknown = "** attribute doesn't exist **"
	msgInvalidValue     = "** invalid value **"
	msgStorageError     = "** storage error **"
)

// atributos que o update nunca altera
var readOnlyAttributes = map[string]bool{"id": true, "created_at": true, "updated_at": true}

type handler func(ctx context.Context, args string)

// Console é o interpretador de linhas do hbnb sobre um domain.Storage.
type Console struct {
	logger *slog.Logger
	store  domain.Storage
	out    io.Writer

	// Interactive imprime o prompt antes de cada linha.
	Interactive bool

	handlers map[string]handler
	help     map[string]string
}

func NewConsole(logger *slog.Logger, store domain.Storage, out io.Writer) *Console {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Console{
		logger: logger,
		store:  store,
		out:    out,
	}

	c.handlers = map[string]handler{
		"create":  c.create,
		"show":    c.show,
		"destroy": c.destroy,
		"all":     c.all,
		"count":   c.count,
		"update":  c.update,
	}
	c.help = map[string]string{
		"create":  "Creates a class of any type\n[Usage]: create <className> [<key>=<value> ...]",
		"show":    "Shows an individual instance of a class\n[Usage]: show <className> <objectId>",
		"destroy": "Destroys an individual instance of a class\n[Usage]: destroy <className> <objectId>",
		"all":     "Shows all objects, or all of a class\n[Usage]: all [<className>]",
		"count":   "Counts the instances of a class\n[Usage]: count <className>",
		"update":  "Updates an object with new information\n[Usage]: update <className> <id> <attName> <attVal>",
		"quit":    "Exits the program",
		"EOF":     "Exits the program",
	}

	return c
}

// Run lê comandos até quit, EOF ou cancelamento do contexto.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if c.Interactive {
			fmt.Fprint(c.out, Prompt)
		}

		if ctx.Err() != nil {
			return nil
		}

		if !scanner.Scan() {
			if c.Interactive {
				fmt.Fprintln(c.out)
			}
			return scanner.Err()
		}

		if stop := c.Execute(ctx, scanner.Text()); stop {
			return nil
		}
	}
}

// Execute roda uma linha e informa se o console deve encerrar.
func (c *Console) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(rewriteDotSyntax(strings.TrimSpace(line)))
	if line == "" {
		return false
	}

	command, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	switch command {
	case "quit", "EOF":
		return true
	case "help":
		c.printHelp(args)
		return false
	}

	h, ok := c.handlers[command]
	if !ok {
		c.println("*** Unknown syntax: " + line)
		return false
	}

	h(ctx, args)
	return false
}

func (c *Console) println(text string) {
	fmt.Fprintln(c.out, text)
}

func (c *Console) printHelp(topic string) {
	if topic == "" {
		names := make([]string, 0, len(c.help))
		for name := range c.help {
			names = append(names, name)
		}
		sort.Strings(names)
		c.println("Documented commands (type help <topic>):")
		c.println(strings.Join(names, "  "))
		return
	}

	if text, ok := c.help[topic]; ok {
		c.println(text)
		return
	}
	c.println("*** No help on " + topic)
}

// lookupClass valida o nome da classe e imprime a mensagem de erro correspondente.
func (c *Console) lookupClass(name string) (*entities.Schema, bool) {
	if name == "" {
		c.println(msgClassMissing)
		return nil, false
	}
	schema, ok := entities.Lookup(name)
	if !ok {
		c.println(msgClassUnknown)
		return nil, false
	}
	return schema, true
}

// lookupInstance valida "<Classe> <id>" e devolve a instância.
func (c *Console) lookupInstance(ctx context.Context, args string) (domain.Model, string, bool) {
	class, rest, _ := strings.Cut(args, " ")
	if _, ok := c.lookupClass(class); !ok {
		return nil, "", false
	}

	id, rest, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if id == "" {
		c.println(msgIDMissing)
		return nil, "", false
	}

	m, err := c.store.Get(ctx, class, id)
	if errors.Is(err, domain.ErrNotFound) {
		c.println(msgNoInstance)
		return nil, "", false
	}
	if err != nil {
		c.reportStorageError("lookup", err)
		return nil, "", false
	}

	return m, strings.TrimSpace(rest), true
}

func (c *Console) reportStorageError(command string, err error) {
	c.logger.Error("Console - storage error", "command", command, "error", err)
	c.println(msgStorageError)
}

func (c *Console) create(ctx context.Context, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		c.println(msgClassMissing)
		return
	}

	schema, ok := c.lookupClass(fields[0])
	if !ok {
		return
	}

	m, err := entities.New(c.store, schema.Class)
	if err != nil {
		c.reportStorageError("create", err)
		return
	}

	for _, param := range fields[1:] {
		key, text, ok := parseParam(param)
		if !ok || readOnlyAttributes[key] || !schema.HasAttribute(key) {
			continue
		}

		value, err := schema.ParseValue(key, text)
		if err != nil {
			c.logger.Debug("Console - skipping parameter", "param", param, "error", err)
			continue
		}
		if err := entities.SetAttribute(m, key, value); err != nil {
			c.logger.Debug("Console - skipping parameter", "param", param, "error", err)
		}
	}

	if err := entities.Save(ctx, m); err != nil {
		c.reportStorageError("create", err)
		return
	}

	c.println(m.GetID())
}

func (c *Console) show(ctx context.Context, args string) {
	m, _, ok := c.lookupInstance(ctx, args)
	if !ok {
		return
	}
	c.println(m.String())
}

func (c *Console) destroy(ctx context.Context, args string) {
	m, _, ok := c.lookupInstance(ctx, args)
	if !ok {
		return
	}

	c.store.Delete(m)
	if err := c.store.Save(ctx); err != nil {
		c.reportStorageError("destroy", err)
	}
}

func (c *Console) all(ctx context.Context, args string) {
	class, _, _ := strings.Cut(args, " ")
	if class != "" {
		if _, ok := c.lookupClass(class); !ok {
			return
		}
	}

	models, err := c.store.All(ctx, class)
	if err != nil {
		c.reportStorageError("all", err)
		return
	}

	c.println(renderList(sortedStrings(models)))
}

func (c *Console) count(ctx context.Context, args string) {
	class, _, _ := strings.Cut(args, " ")
	if _, ok := c.lookupClass(class); !ok {
		return
	}

	n, err := c.store.Count(ctx, class)
	if err != nil {
		c.reportStorageError("count", err)
		return
	}
	c.println(fmt.Sprint(n))
}

func (c *Console) update(ctx context.Context, args string) {
	m, rest, ok := c.lookupInstance(ctx, args)
	if !ok {
		return
	}

	schema, _ := entities.Lookup(m.ClassName())

	var pairs [][2]any
	if strings.HasPrefix(rest, "{") && strings.HasSuffix(rest, "}") {
		dict, err := parseDict(rest)
		if err != nil {
			c.println(msgInvalidValue)
			return
		}
		keys := make([]string, 0, len(dict))
		for key := range dict {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			pairs = append(pairs, [2]any{key, dict[key]})
		}
	} else {
		name, value := splitUpdateArgs(rest)
		if name == "" {
			c.println(msgAttributeMissing)
			return
		}
		if value == "" {
			c.println(msgValueMissing)
			return
		}
		pairs = append(pairs, [2]any{name, value})
	}

	// valida tudo antes de tocar no modelo
	resolved := make([][2]any, 0, len(pairs))
	for _, pair := range pairs {
		name := pair[0].(string)
		if readOnlyAttributes[name] {
			continue
		}
		if !schema.HasAttribute(name) {
			c.println(msgAttributeUnknown)
			return
		}

		value := pair[1]
		if number, isNumber := value.(json.Number); isNumber {
			value = number.String()
		}

		var err error
		if text, isText := value.(string); isText {
			value, err = schema.ParseValue(name, text)
		} else {
			value, err = schema.CoerceValue(name, value)
		}
		if err != nil {
			c.println(msgInvalidValue)
			return
		}
		resolved = append(resolved, [2]any{name, value})
	}

	for _, pair := range resolved {
		if err := entities.SetAttribute(m, pair[0].(string), pair[1]); err != nil {
			c.println(msgInvalidValue)
			return
		}
	}

	if err := entities.Save(ctx, m); err != nil {
		c.reportStorageError("update", err)
	}
}

// sortedStrings ordena por chave para que a listagem seja estável entre execuções.
func sortedStrings(models map[string]domain.Model) []string {
	keys := make([]string, 0, len(models))
	for key := range models {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, models[key].String())
	}
	return out
}
