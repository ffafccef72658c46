// Command nest runs the cut-list optimizer against a project file and
// writes the optimized layout back to disk, optionally exporting a PDF
// cut diagram and an Excel placement report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/piwi3910/nestcut/internal/engine"
	"github.com/piwi3910/nestcut/internal/export"
	"github.com/piwi3910/nestcut/internal/model"
)

func main() {
	projectPath := flag.String("project", "", "path to a project JSON file (parts, stocks, settings)")
	outPath := flag.String("out", "", "path to write the optimized project JSON (defaults to overwriting -project)")
	pdfPath := flag.String("pdf", "", "optional path to write a PDF cut diagram")
	xlsxPath := flag.String("xlsx", "", "optional path to write an Excel placement report")
	flag.Parse()

	if *projectPath == "" {
		fmt.Fprintln(os.Stderr, "nest: -project is required")
		os.Exit(2)
	}

	if err := run(*projectPath, *outPath, *pdfPath, *xlsxPath); err != nil {
		fmt.Fprintf(os.Stderr, "nest: %v\n", err)
		os.Exit(1)
	}
}

func run(projectPath, outPath, pdfPath, xlsxPath string) error {
	project, err := loadProject(projectPath)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}

	result := engine.New(project.Settings).Optimize(project.Parts, project.Stocks)
	project.Result = &result

	if outPath == "" {
		outPath = projectPath
	}
	if err := saveProject(outPath, project); err != nil {
		return fmt.Errorf("save project: %w", err)
	}

	if pdfPath != "" {
		if err := export.ExportPDF(pdfPath, result, project.Settings); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
	}
	if xlsxPath != "" {
		if err := export.ExportXLSX(xlsxPath, result); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
	}

	fmt.Printf("placed %d sheet(s), %.1f%% efficiency, %d unplaced part(s)\n",
		len(result.Sheets), result.TotalEfficiency(), len(result.UnplacedParts))
	return nil
}

func loadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, err
	}
	project := model.NewProject()
	if err := json.Unmarshal(data, &project); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

func saveProject(path string, project model.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
