package erp

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	fieldReceivingFC = "ВнутрипортовоеЭкспедированиеДатаПолученияФС"
	fieldProvisionFC = "ДатаПредоставленияФСПоГП"

	wireDatetimeFormat = "02.01.2006 15:04:05"
)

var datetimeLayouts = []string{
	wireDatetimeFormat,
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime: %q", value)
}

// enrichProvisionDates fills ДатаПредоставленияФСПоГП for containers whose
// receiving and provision dates are both still empty on the 1C side. The
// provision date is the container upload date plus one month.
func (c *Client) enrichProvisionDates(ctx context.Context, payload Payload) Payload {
	if len(payload.TransactionNumbers) == 0 || len(payload.Containers) == 0 {
		return payload
	}

	withUploadDate := make(map[string]bool, len(payload.Containers))
	for _, cont := range payload.Containers {
		if cont.Container != "" && cont.UploadDate != "" {
			withUploadDate[cont.Container] = true
		}
	}
	if len(withUploadDate) == 0 {
		return payload
	}

	rows, ok := c.ProductionRequisites(ctx, payload.TransactionNumbers[0], fieldReceivingFC, fieldProvisionFC)
	if !ok || len(rows) == 0 {
		return payload
	}

	needUpdate := make(map[string]bool)
	for _, row := range rows {
		for code, fields := range row {
			if withUploadDate[code] && fields[fieldReceivingFC] == "" && fields[fieldProvisionFC] == "" {
				needUpdate[code] = true
			}
		}
	}

	payload.Containers = append([]PayloadContainer(nil), payload.Containers...)
	for i := range payload.Containers {
		cont := &payload.Containers[i]
		if !needUpdate[cont.Container] || cont.UploadDate == "" {
			continue
		}
		parsed, err := parseDatetime(cont.UploadDate)
		if err != nil {
			c.log.WithError(err).Warnf("provision date for %s", cont.Container)
			continue
		}
		cont.ProvisionDate = parsed.AddDate(0, 1, 0).Format(wireDatetimeFormat)
	}
	return payload
}
