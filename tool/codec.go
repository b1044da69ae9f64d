package tool

import (
	"fmt"
	"sort"
	"strings"
)

const DefaultTag = "use_tool"

const nameElement = "name"

// Codec renders the usage prompt for a registry and parses tagged
// invocations back out of response text. Both directions share one tag.
type Codec struct {
	tag      string
	open     string
	close    string
	registry *Registry
	names    []string
}

func NewCodec(tag string, reg *Registry) *Codec {
	if tag == "" {
		tag = DefaultTag
	}
	c := &Codec{
		tag:      tag,
		open:     "<" + tag + ">",
		close:    "</" + tag + ">",
		registry: reg,
		names:    []string{nameElement},
	}
	seen := map[string]bool{nameElement: true}
	for _, s := range reg.Schemas() {
		for _, a := range s.Args {
			if !seen[a.Name] {
				seen[a.Name] = true
				c.names = append(c.names, a.Name)
			}
		}
	}
	return c
}

func (c *Codec) Tag() string { return c.tag }

// RenderUsagePrompt describes every registered action in registration order.
// The output depends only on the registry and tag.
func (c *Codec) RenderUsagePrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nYou can call tools by wrapping each call in <%s></%s> tags. ", c.tag, c.tag)
	fmt.Fprintf(&b, "Put the tool name in a <%s> element and every argument in an element named after the argument:\n\n", nameElement)
	c.writeExample(&b, "tool_name", []Arg{{Name: "argument_name"}})
	b.WriteString("\nAll argument values are plain text. Do not escape them.\n\nAvailable tools:\n")

	for _, s := range c.registry.Schemas() {
		fmt.Fprintf(&b, "\n%s: %s\n", s.Name, s.Description)
		if len(s.Args) > 0 {
			b.WriteString("Arguments:\n")
			for _, a := range s.Args {
				fmt.Fprintf(&b, "- %s (%s): %s\n", a.Name, a.Type, a.Description)
			}
		}
		b.WriteString("Example:\n")
		c.writeExample(&b, s.Name, s.Args)
	}
	return b.String()
}

func (c *Codec) writeExample(b *strings.Builder, name string, args []Arg) {
	fmt.Fprintf(b, "<%s>\n<%s>%s</%s>\n", c.tag, nameElement, name, nameElement)
	for _, a := range args {
		fmt.Fprintf(b, "<%s>value</%s>\n", a.Name, a.Name)
	}
	fmt.Fprintf(b, "</%s>\n", c.tag)
}

// Rejection is a tagged segment that could not be decoded.
type Rejection struct {
	Segment string
	Err     error
}

type ParseResult struct {
	Invocations []Invocation
	Rejected    []Rejection
}

// Parse extracts well-formed invocations in document order. Text outside the
// tag is ignored and ill-formed segments are reported in Rejected. A segment
// that is still open when the next one starts, or when the text ends, is
// rejected without consuming what follows it.
func (c *Codec) Parse(text string) ParseResult {
	var res ParseResult
	for {
		start := strings.Index(text, c.open)
		if start < 0 {
			return res
		}
		text = text[start:]
		body := text[len(c.open):]

		end := strings.Index(body, c.close)
		next := strings.Index(body, c.open)
		if end < 0 || (next >= 0 && next < end) {
			cut := len(text)
			if next >= 0 {
				cut = len(c.open) + next
			}
			res.Rejected = append(res.Rejected, Rejection{
				Segment: text[:cut],
				Err:     fmt.Errorf("%w: <%s> is never closed", ErrMalformedInvocation, c.tag),
			})
			text = text[cut:]
			continue
		}

		segment := text[:len(c.open)+end+len(c.close)]
		inv, err := c.decode(body[:end])
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Segment: segment, Err: err})
		} else {
			res.Invocations = append(res.Invocations, inv)
		}
		text = text[len(segment):]
	}
}

func (c *Codec) decode(body string) (Invocation, error) {
	values := c.elements(body)
	name := strings.TrimSpace(values[nameElement])
	if name == "" {
		return Invocation{}, fmt.Errorf("%w: no <%s> element", ErrMalformedInvocation, nameElement)
	}
	schema, _, ok := c.registry.Lookup(name)
	if !ok {
		return Invocation{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	args := make(map[string]string, len(schema.Args))
	for _, a := range schema.Args {
		if v, ok := values[a.Name]; ok {
			args[a.Name] = decodeValue(v, a.Verbatim)
		}
	}
	if err := schema.Validate(args); err != nil {
		return Invocation{}, err
	}
	return Invocation{Name: name, Args: args}, nil
}

type elementPos struct {
	name  string
	start int
}

// elements returns the raw value of every known element in body. Each
// element is located by its first opening tag and its value runs to the last
// matching closing tag before the next known element opens, so a value may
// contain its own closing tag.
func (c *Codec) elements(body string) map[string]string {
	var found []elementPos
	for _, name := range c.names {
		if i := strings.Index(body, "<"+name+">"); i >= 0 {
			found = append(found, elementPos{name: name, start: i})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })

	values := make(map[string]string, len(found))
	for i, e := range found {
		limit := len(body)
		if i+1 < len(found) {
			limit = found[i+1].start
		}
		region := body[e.start+len(e.name)+2 : limit]
		if end := strings.LastIndex(region, "</"+e.name+">"); end >= 0 {
			values[e.name] = region[:end]
		}
	}
	return values
}

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// decodeValue unwraps CDATA. Verbatim values only lose the line break that
// directly follows the opening tag; all others are trimmed.
func decodeValue(v string, verbatim bool) string {
	if inner := strings.TrimSpace(v); strings.HasPrefix(inner, cdataOpen) && strings.HasSuffix(inner, cdataClose) {
		return inner[len(cdataOpen) : len(inner)-len(cdataClose)]
	}
	if !verbatim {
		return strings.TrimSpace(v)
	}
	if strings.HasPrefix(v, "\r\n") {
		return v[2:]
	}
	return strings.TrimPrefix(v, "\n")
}
