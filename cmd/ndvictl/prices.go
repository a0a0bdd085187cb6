package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	cell        = lipgloss.NewStyle().PaddingRight(2)
)

func newPricesCmd() *cobra.Command {
	var (
		api     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prices [query]",
		Short: "Show current crop market prices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			client := &http.Client{Timeout: timeout}
			prices, err := fetchPrices(cmd, client, api, query)
			if err != nil {
				return err
			}
			if len(prices) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No crops match %q\n", query)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), priceTable(prices))
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", "http://localhost:8080", "AgroSight API base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

func fetchPrices(cmd *cobra.Command, client *http.Client, api, query string) ([]domain.CropPrice, error) {
	u := strings.TrimRight(api, "/") + "/v1/prices"
	if query != "" {
		u += "?q=" + url.QueryEscape(query)
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("fetch prices: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("fetch prices: status %d", resp.StatusCode)
	}

	var prices []domain.CropPrice
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	return prices, nil
}

// priceTable lays the prices out in aligned columns.
func priceTable(prices []domain.CropPrice) string {
	rows := [][]string{{"Crop", "Price", "Change"}}
	for _, p := range prices {
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%s %.2f/%s", p.Currency, p.PricePerUnit, p.Unit),
			fmt.Sprintf("%+.1f%%", p.ChangePercent),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, v := range r {
			widths[i] = max(widths[i], lipgloss.Width(v))
		}
	}

	lines := make([]string, 0, len(rows))
	for n, r := range rows {
		cols := make([]string, len(r))
		for i, v := range r {
			style := cell.Width(widths[i] + 2)
			switch {
			case n == 0:
				style = style.Inherit(headerStyle)
			case i == 2 && prices[n-1].Trend == domain.TrendUp:
				style = style.Inherit(upStyle)
			case i == 2 && prices[n-1].Trend == domain.TrendDown:
				style = style.Inherit(downStyle)
			}
			cols[i] = style.Render(v)
		}
		lines = append(lines, strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cols...), " "))
	}
	return strings.Join(lines, "\n")
}
