package core

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

func readmePrompts(r *Request, usage string) (system, user string, err error) {
	spec, err := yaml.Marshal(r.Spec)
	if err != nil {
		return "", "", fmt.Errorf("error encoding project spec: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a skilled AI that specializes in web app creation. Generate a README using the write_readme tool.\n")
	b.WriteString("Project Specs:\n")
	b.Write(spec)
	fmt.Fprintf(&b, "Frontend: %s\n", r.Frontend)
	fmt.Fprintf(&b, "Backend: %s\n", r.Backend)
	fmt.Fprintf(&b, "Database: %s\n", r.Database)
	if r.GitRepo != "" {
		fmt.Fprintf(&b, "Git repository: %s\n", r.GitRepo)
	}
	b.WriteString("Include sections: Introduction, Usage, Files, Methods, Models, CSS, JS, Notes.\n")
	b.WriteString(usage)

	return b.String(), "Create a comprehensive README.md for the described application.", nil
}

func fileListPrompts(readme, usage string) (system, user string) {
	system = "Analyze the README and list project files using provide_file_list tool.\n" +
		"Include only text/code files (no binaries or generated files).\n" + usage
	user = fmt.Sprintf("README content:\n%s\n\nList the project files:", readme)
	return system, user
}

func filePrompts(r *Request, readme, file, usage string) (system, user string) {
	system = fmt.Sprintf("Generate code for %s using write_file tool.\nTech stack: %s, %s, %s\n",
		file, r.Frontend, r.Backend, r.Database) + usage
	user = fmt.Sprintf("README:\n%s\n\nCreate the %s file:", readme, file)
	return system, user
}
