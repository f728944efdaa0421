// Command testreport joins `go test -json` output with the annotation block
// above each test (TestPurpose, Scope, Security, Expected, Test Case ID) and
// writes a JSON and a Markdown report grouped by test case prefix.
//
//	go test -json ./... > test.json
//	go run ./scripts/testreport -input test.json -out-json report.json -out-md report.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const modulePath = "github.com/linkspace/linkspace"

// annotation is the documented intent of one test function
type annotation struct {
	Purpose    string `json:"purpose,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Security   string `json:"security,omitempty"`
	Expected   string `json:"expected,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
}

// group is the test case prefix, e.g. "HTTP" for HTTP-04.
func (a annotation) group() string {
	if a.TestCaseID == "" {
		return "Unannotated"
	}
	prefix, _, _ := strings.Cut(a.TestCaseID, "-")
	return prefix
}

type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

type result struct {
	Package    string     `json:"package"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Elapsed    float64    `json:"elapsed_seconds"`
	Output     string     `json:"failure_output,omitempty"`
	Annotation annotation `json:"annotation"`
}

type report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []*result `json:"results"`
}

func main() {
	input := flag.String("input", "", "go test -json output")
	outJSON := flag.String("out-json", "", "JSON report path")
	outMD := flag.String("out-md", "", "Markdown report path")
	title := flag.String("title", "LinkSpace Test Report", "report title")
	root := flag.String("root", ".", "module root to scan for annotations")
	flag.Parse()

	if *input == "" || (*outJSON == "" && *outMD == "") {
		fmt.Fprintln(os.Stderr, "usage: testreport -input <file> [-out-json <file>] [-out-md <file>]")
		os.Exit(2)
	}

	annotations, err := scanAnnotations(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	rep, err := readResults(*input, annotations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
		os.Exit(1)
	}

	if *outJSON != "" {
		data, _ := json.MarshalIndent(rep, "", "  ")
		if err := os.WriteFile(*outJSON, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
			os.Exit(1)
		}
	}
	if *outMD != "" {
		if err := os.WriteFile(*outMD, []byte(markdown(rep, *title)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
			os.Exit(1)
		}
	}

	// Fail CI when any test failed.
	if rep.Failed > 0 {
		fmt.Printf("%d of %d tests failed\n", rep.Failed, rep.Total)
		os.Exit(1)
	}
}

// scanAnnotations maps "<import path>.<TestName>" to its annotation.
func scanAnnotations(root string) (map[string]annotation, error) {
	out := make(map[string]annotation)
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, filepath.Dir(path))
		pkg := modulePath
		if rel != "." {
			pkg += "/" + filepath.ToSlash(rel)
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Doc == nil || !strings.HasPrefix(fn.Name.Name, "Test") {
				continue
			}
			out[pkg+"."+fn.Name.Name] = parseAnnotation(fn.Doc)
		}
		return nil
	})
	return out, err
}

func parseAnnotation(doc *ast.CommentGroup) annotation {
	var a annotation
	fields := map[string]*string{
		"TestPurpose:":  &a.Purpose,
		"Scope:":        &a.Scope,
		"Security:":     &a.Security,
		"Expected:":     &a.Expected,
		"Test Case ID:": &a.TestCaseID,
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		for prefix, dst := range fields {
			if v, ok := strings.CutPrefix(text, prefix); ok {
				*dst = strings.TrimSpace(v)
			}
		}
	}
	return a
}

func readResults(path string, annotations map[string]annotation) (*report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	byKey := make(map[string]*result)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev testEvent
		if json.Unmarshal(scanner.Bytes(), &ev) != nil || ev.Test == "" {
			continue
		}
		key := ev.Package + "." + ev.Test
		res, ok := byKey[key]
		if !ok {
			parent, _, _ := strings.Cut(ev.Test, "/")
			res = &result{Package: ev.Package, Name: ev.Test, Annotation: annotations[ev.Package+"."+parent]}
			byKey[key] = res
		}
		switch ev.Action {
		case "pass", "fail", "skip":
			res.Status = ev.Action
			res.Elapsed = ev.Elapsed
		case "output":
			res.Output += ev.Output
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	rep := &report{GeneratedAt: time.Now().UTC()}
	for _, res := range byKey {
		if res.Status != "fail" {
			res.Output = ""
		}
		rep.Results = append(rep.Results, res)
		rep.Total++
		switch res.Status {
		case "pass":
			rep.Passed++
		case "fail":
			rep.Failed++
		case "skip":
			rep.Skipped++
		}
	}
	sort.Slice(rep.Results, func(i, j int) bool {
		a, b := rep.Results[i], rep.Results[j]
		if a.Annotation.TestCaseID != b.Annotation.TestCaseID {
			return a.Annotation.TestCaseID < b.Annotation.TestCaseID
		}
		return a.Package+a.Name < b.Package+b.Name
	})
	return rep, nil
}

func markdown(rep *report, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\nGenerated %s\n\n", title, rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "| Total | Passed | Failed | Skipped |\n|---|---|---|---|\n| %d | %d | %d | %d |\n",
		rep.Total, rep.Passed, rep.Failed, rep.Skipped)

	groups := make(map[string][]*result)
	var names []string
	for _, res := range rep.Results {
		g := res.Annotation.group()
		if _, seen := groups[g]; !seen {
			names = append(names, g)
		}
		groups[g] = append(groups[g], res)
	}
	sort.Strings(names)

	for _, g := range names {
		fmt.Fprintf(&sb, "\n## %s\n\n| ID | Test | Status | Purpose |\n|---|---|---|---|\n", g)
		for _, res := range groups[g] {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %s |\n",
				res.Annotation.TestCaseID, res.Name, res.Status, res.Annotation.Purpose)
		}
	}

	if rep.Failed > 0 {
		sb.WriteString("\n## Failures\n")
		for _, res := range rep.Results {
			if res.Status == "fail" {
				fmt.Fprintf(&sb, "\n### %s.%s\n\n```\n%s```\n", res.Package, res.Name, res.Output)
			}
		}
	}
	return sb.String()
}
