package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"aicaps/internal/capabilities"
	"aicaps/internal/capacity"
	"aicaps/internal/frameworks"
	"aicaps/internal/gpu"
)

type styles struct {
	section lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	ok      lipgloss.Style
	error   lipgloss.Style
	muted   lipgloss.Style
	big     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		section: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700")).MarginTop(1),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd75f")),
		error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		big:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")),
	}
}

// RenderReport renders every section of a report as styled text
func RenderReport(report capabilities.Report) string {
	st := defaultStyles()

	var b strings.Builder
	b.WriteString(st.section.Render("Token Capacity"))
	b.WriteString("\n")
	b.WriteString(renderCapacitySection(report.TokenCapacity, st))
	b.WriteString(st.section.Render("System"))
	b.WriteString("\n")
	b.WriteString(renderSystemSection(report, st))
	b.WriteString(renderAccelerators(report, st))
	b.WriteString(st.section.Render("Frameworks"))
	b.WriteString("\n")
	b.WriteString(renderFrameworksSection(report, st))
	return b.String()
}

func (m Model) renderOverviewScreen() string {
	if !m.hasReport {
		return m.renderPending()
	}

	st := defaultStyles()

	var b strings.Builder
	b.WriteString(st.section.Render("Token Capacity"))
	b.WriteString("\n")
	b.WriteString(renderCapacitySection(m.report.TokenCapacity, st))
	b.WriteString(st.section.Render("System"))
	b.WriteString("\n")
	b.WriteString(renderSystemSection(m.report, st))
	b.WriteString(st.section.Render("Accelerators"))
	b.WriteString("\n")
	b.WriteString(renderStatusLine("CUDA", m.report.CUDA.Status, st))
	b.WriteString(renderStatusLine("nvidia-smi", m.report.NvidiaSMI.Status, st))
	b.WriteString(renderStatusLine("ROCm", m.report.ROCm.Status, st))
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderAcceleratorsScreen() string {
	if !m.hasReport {
		return m.renderPending()
	}
	return renderAccelerators(m.report, defaultStyles()) + m.renderFooter()
}

func (m Model) renderFrameworksScreen() string {
	if !m.hasReport {
		return m.renderPending()
	}

	st := defaultStyles()
	return st.section.Render("Frameworks") + "\n" + renderFrameworksSection(m.report, st) + m.renderFooter()
}

func (m Model) renderPending() string {
	if m.lastError != "" && !m.loading {
		return defaultStyles().error.Render("No report available") + "\n" + m.renderFooter()
	}
	return m.renderFooter()
}

func renderCapacitySection(est capacity.Result, st styles) string {
	var b strings.Builder
	b.WriteString(st.big.Render(fmt.Sprintf("%s tokens", humanize.Comma(int64(est.EstimatedMaxContextLength)))))
	b.WriteString("\n")

	if est.Basis == capacity.BasisNone {
		b.WriteString(st.muted.Render(fmt.Sprintf("Not enough memory for a recommendation (%.1f GiB)", est.MemoryGiB)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(st.muted.Render(fmt.Sprintf("Based on %.1f GiB of %s memory", est.MemoryGiB, strings.ToUpper(string(est.Basis)))))
	b.WriteString("\n")
	for _, model := range est.SuggestedModels {
		b.WriteString(fmt.Sprintf("  • %s\n", st.value.Render(model)))
	}
	return b.String()
}

func renderSystemSection(report capabilities.Report, st styles) string {
	sys := report.System

	var b strings.Builder
	writeField(&b, st, "Platform", sys.Platform)
	writeField(&b, st, "Processor", sys.Processor)
	writeField(&b, st, "Cores", fmt.Sprintf("%d physical, %d logical", sys.CPUCount, sys.CPUCountLogical))
	if sys.CPUFreq != nil {
		writeField(&b, st, "Frequency", fmt.Sprintf("%.0f MHz", sys.CPUFreq.Current))
	}
	writeField(&b, st, "Memory", fmt.Sprintf("%s total, %s available (%.1f%% used)",
		humanize.IBytes(sys.MemoryTotal), humanize.IBytes(sys.MemoryAvailable), sys.MemoryPercent))
	writeField(&b, st, "Runtime", sys.RuntimeVersion)
	return b.String()
}

func renderAccelerators(report capabilities.Report, st styles) string {
	var b strings.Builder

	b.WriteString(st.section.Render("CUDA"))
	b.WriteString("\n")
	b.WriteString(renderCUDASection(report.CUDA, st))

	b.WriteString(st.section.Render("nvidia-smi"))
	b.WriteString("\n")
	b.WriteString(renderSMISection(report.NvidiaSMI, st))

	b.WriteString(st.section.Render("ROCm"))
	b.WriteString("\n")
	b.WriteString(renderROCmSection(report.ROCm, st))

	return b.String()
}

func renderCUDASection(cuda gpu.CUDAReport, st styles) string {
	if !cuda.Available {
		return notAvailable(cuda.Error, st)
	}

	var b strings.Builder
	writeField(&b, st, "Version", derefOr(cuda.Version, "unknown"))
	writeField(&b, st, "Devices", fmt.Sprintf("%d", cuda.GPUCount))
	for _, dev := range cuda.GPUs {
		b.WriteString(fmt.Sprintf("  • [%d] %s (%s total, %s allocated)\n",
			dev.ID, st.value.Render(dev.Name), humanize.IBytes(dev.MemoryTotal), humanize.IBytes(dev.MemoryAllocated)))
	}
	return b.String()
}

func renderSMISection(smi gpu.SMIReport, st styles) string {
	if !smi.Available {
		return notAvailable(smi.Error, st)
	}

	var b strings.Builder
	for _, dev := range smi.GPUs {
		b.WriteString(fmt.Sprintf("  • %s  driver %s  %s / %s\n",
			st.value.Render(dev.Name), dev.DriverVersion, dev.MemoryUsed, dev.MemoryTotal))
	}
	return b.String()
}

func renderROCmSection(rocm gpu.ROCmReport, st styles) string {
	if !rocm.Available {
		return notAvailable(rocm.Error, st)
	}

	var b strings.Builder
	writeField(&b, st, "Version", derefOr(rocm.Version, "unknown"))
	if rocm.Output != "" {
		b.WriteString(st.muted.Render(rocm.Output))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFrameworksSection(report capabilities.Report, st styles) string {
	var b strings.Builder
	for _, fw := range frameworks.Known {
		status, checked := report.Frameworks.Get(fw.Name)
		switch {
		case !checked:
			writeField(&b, st, fw.Name, st.muted.Render("Not checked"))
		case !status.Available:
			writeField(&b, st, fw.Name, st.error.Render("Not available"))
		case status.Version == "":
			writeField(&b, st, fw.Name, st.ok.Render("installed"))
		default:
			writeField(&b, st, fw.Name, st.ok.Render(status.Version))
		}
	}
	return b.String()
}

func renderStatusLine(name string, status gpu.Status, st styles) string {
	if status.Available {
		return st.label.Render(name+": ") + st.ok.Render("available") + "\n"
	}
	return st.label.Render(name+": ") + notAvailable(status.Error, st)
}

func notAvailable(reason string, st styles) string {
	if reason == "" {
		reason = "unknown reason"
	}
	return st.error.Render("Not available: "+reason) + "\n"
}

func writeField(b *strings.Builder, st styles, label, value string) {
	b.WriteString(st.label.Render(label + ": "))
	b.WriteString(st.value.Render(value))
	b.WriteString("\n")
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
