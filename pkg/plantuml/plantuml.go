// Package plantuml renders a command tree as a PlantUML state diagram.
// Sequential groups become chained states, parallel and race groups become
// concurrent regions.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
)

func idFromPath(path []int) string {
	parts := make([]string, len(path))
	for i, index := range path {
		parts[i] = fmt.Sprint(index)
	}
	return "c" + strings.Join(parts, "_")
}

func label(name string) string {
	return strings.ReplaceAll(name, `"`, `'`)
}

func stereotype(command embedded.Command) string {
	tag := kinds.String(command.Kind())
	if command.InterruptBehavior() == embedded.CancelIncoming {
		tag += ", cancel_incoming"
	}
	return fmt.Sprintf(" <<%s>>", tag)
}

func generateCommand(builder *strings.Builder, depth int, path []int, command embedded.Command) {
	id := idFromPath(path)
	indent := strings.Repeat(" ", depth*2)
	group, ok := command.(embedded.Group)
	if !ok {
		fmt.Fprintf(builder, "%sstate \"%s\" as %s%s\n", indent, label(command.Name()), id, stereotype(command))
		return
	}
	fmt.Fprintf(builder, "%sstate \"%s\" as %s%s {\n", indent, label(command.Name()), id, stereotype(command))
	children := group.Children()
	inner := strings.Repeat(" ", (depth+1)*2)
	switch {
	case kinds.IsKind(command.Kind(), kinds.Parallel):
		for i, child := range children {
			if i > 0 {
				fmt.Fprintf(builder, "%s--\n", inner)
			}
			childPath := append(path[:len(path):len(path)], i)
			generateCommand(builder, depth+1, childPath, child)
			fmt.Fprintf(builder, "%s[*] --> %s\n", inner, idFromPath(childPath))
		}
	default:
		previous := "[*]"
		for i, child := range children {
			childPath := append(path[:len(path):len(path)], i)
			generateCommand(builder, depth+1, childPath, child)
			fmt.Fprintf(builder, "%s%s --> %s\n", inner, previous, idFromPath(childPath))
			previous = idFromPath(childPath)
		}
		if len(children) > 0 {
			fmt.Fprintf(builder, "%s%s --> [*]\n", inner, previous)
		}
	}
	fmt.Fprintf(builder, "%s}\n", indent)
}

// Generate writes the diagram for command to writer.
func Generate(writer io.Writer, command embedded.Command) error {
	if command == nil {
		return fmt.Errorf("plantuml: nil command")
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "@startuml %s\n", command.Id())
	generateCommand(&builder, 0, []int{0}, command)
	fmt.Fprintf(&builder, "[*] --> %s\n", idFromPath([]int{0}))
	fmt.Fprintln(&builder, "@enduml")
	_, err := writer.Write([]byte(builder.String()))
	return err
}
