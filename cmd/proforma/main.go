package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/finforge/proforma/internal/engine"
	"github.com/finforge/proforma/internal/model"
	"github.com/finforge/proforma/internal/server"
	"github.com/finforge/proforma/pkg/constants"
	"github.com/finforge/proforma/pkg/output"
	"github.com/finforge/proforma/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags.
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig model.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	// Process command line flags first to get the model location
	modelLocation := flag.String("config", constants.DefaultModelFile, "path to model file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "serve the resolution API over HTTP instead of printing a table")
	addr := flag.String("addr", "", "HTTP listen address override")
	flag.Parse()

	// Load the model file to get logging configuration
	m, err := model.Load(*modelLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load model at %s\", \"error\": \"%v\"}\n", *modelLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(m.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := m.Validate(); err != nil {
		logger.Fatal("invalid model",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Display any model warnings
	for _, warning := range modelWarnings(m) {
		logger.Warn("Model warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *serve {
		address := m.Server.Address
		if *addr != "" {
			address = *addr
		}
		if address == "" {
			address = constants.DefaultServerAddress
		}
		handler := server.NewHandler(logger, m.Server.MaxUploadBytes, version)
		logger.Info("serving resolution API",
			zap.String("op", "main"),
			zap.String("address", address),
		)
		if err := http.ListenAndServe(address, handler); err != nil {
			logger.Fatal("server stopped",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := m.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}
	if outputFormat != constants.OutputFormatPretty && outputFormat != constants.OutputFormatCSV {
		logger.Fatal(fmt.Sprintf("invalid output format: %s", outputFormat),
			zap.String("op", "main"),
		)
	}

	// Build the immutable snapshot and resolve it.
	snap, err := m.Snapshot(logger)
	if err != nil {
		logger.Fatal("failed to build model snapshot",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	result, err := engine.Resolve(logger, snap)
	if err != nil {
		logger.Fatal("failed to resolve model",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	rows := displayRows(m, result)
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(result.Matrix(), rows)
	case constants.OutputFormatCSV:
		output.CsvFormat(result.Matrix(), rows)
	}
}

// displayRows orders the table rows: line items in model order, then
// generator fields in matrix order.
func displayRows(m *model.Model, result *engine.Result) []output.Row {
	matrix := result.Matrix()
	declared := make(map[string]bool, len(m.LineItems))
	var rows []output.Row
	for _, item := range m.LineItems {
		label := item.Label
		if label == "" {
			label = item.Name
		}
		rows = append(rows, output.Row{Key: item.Name, Label: label, ValueFormat: item.ValueFormat})
		declared[item.Name] = true
	}
	for _, name := range matrix.Names() {
		if !declared[name] {
			rows = append(rows, output.Row{Key: name, Label: name})
		}
	}
	return rows
}

func modelWarnings(m *model.Model) []string {
	mv := validation.ModelValidator{Periods: m.Periods}
	for _, item := range m.LineItems {
		info := validation.ItemInfo{Name: item.Name, Formula: item.Formula}
		for period := range item.Values {
			info.LiteralPeriods = append(info.LiteralPeriods, period)
		}
		mv.Items = append(mv.Items, info)
	}
	return mv.ValidateAll()
}
