// Package review provides Reviewer implementations for the
// finding-place confirmation step.
package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// AutoAccept approves every proposed mapping unchanged. Useful for
// unattended runs against a well-seeded catalogue.
type AutoAccept struct{}

// Review returns the proposal as-is.
func (AutoAccept) Review(_ context.Context, proposed []entities.ResolvedRecord) ([]entities.ResolvedRecord, error) {
	return proposed, nil
}

// Console prompts a person to confirm or correct each distinct proposed
// mapping. Corrections are applied to every record sharing the same raw
// finding place.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console reviewer reading from in and writing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

type mapping struct {
	place string
	lat   float64
	lon   float64
}

// Review walks the distinct raw finding places in the batch, shows the
// proposed mapping for each and lets the reviewer override the mapped
// name and coordinates.
func (c *Console) Review(ctx context.Context, proposed []entities.ResolvedRecord) ([]entities.ResolvedRecord, error) {
	// One decision per distinct raw place, in first-seen order.
	decisions := map[string]mapping{}
	var order []string
	for _, record := range proposed {
		if _, ok := decisions[record.FindingPlace]; ok {
			continue
		}
		decisions[record.FindingPlace] = mapping{record.MappedFindingPlace, record.Lat, record.Lon}
		order = append(order, record.FindingPlace)
	}

	for _, raw := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := decisions[raw]

		fmt.Fprintf(c.out, "%q -> %q (%.4f, %.4f). Accept? [Y/n]: ", raw, current.place, current.lat, current.lon)
		response, err := c.readLine()
		if err != nil {
			return nil, err
		}
		if response == "" || strings.EqualFold(response, "y") || strings.EqualFold(response, "yes") {
			continue
		}

		corrected, err := c.promptMapping(raw)
		if err != nil {
			return nil, err
		}
		decisions[raw] = corrected
	}

	reviewed := make([]entities.ResolvedRecord, len(proposed))
	for i, record := range proposed {
		decision := decisions[record.FindingPlace]
		record.MappedFindingPlace = decision.place
		record.Lat = decision.lat
		record.Lon = decision.lon
		reviewed[i] = record
	}
	return reviewed, nil
}

func (c *Console) promptMapping(raw string) (mapping, error) {
	var m mapping

	fmt.Fprintf(c.out, "Corrected place name for %q: ", raw)
	place, err := c.readLine()
	if err != nil {
		return m, err
	}
	if place == "" {
		return m, fmt.Errorf("corrected place name must not be empty")
	}

	lat, err := c.promptCoordinate("Latitude")
	if err != nil {
		return m, err
	}
	lon, err := c.promptCoordinate("Longitude")
	if err != nil {
		return m, err
	}

	m.place = place
	m.lat = lat
	m.lon = lon
	return m, nil
}

func (c *Console) promptCoordinate(label string) (float64, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	raw, err := c.readLine()
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", strings.ToLower(label), raw, err)
	}
	return value, nil
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if err == io.EOF && line == "" {
		return "", fmt.Errorf("input closed")
	}
	return strings.TrimSpace(line), nil
}
