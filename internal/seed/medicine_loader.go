package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"medchart/m/domain"
	"medchart/m/internal/store"
)

// LoadMedicines imports the CSV catalog into st when st holds no records
// yet, and returns the number of records written. Duplicate codes keep the
// first row.
func LoadMedicines(st store.Store, csvPath string, logger *zap.Logger) int {
	if existing := st.Load(); len(existing) > 0 {
		logger.Info("medicine store already populated, skipping seed", zap.Int("count", len(existing)))
		return 0
	}

	file, err := os.Open(csvPath)
	if err != nil {
		logger.Warn("unable to load medicine catalog", zap.String("path", csvPath), zap.Error(err))
		return 0
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		logger.Warn("unable to read medicine header", zap.Error(err))
		return 0
	}

	items := domain.Collection{}
	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("unable to read medicine row", zap.Error(err))
			continue
		}
		if len(record) < 9 {
			continue
		}
		code := strings.TrimSpace(record[0])
		brandName := strings.TrimSpace(record[1])
		medType := strings.TrimSpace(record[2])
		generic := strings.TrimSpace(record[5])
		manufacturer := strings.TrimSpace(record[7])

		if code == "" || brandName == "" || generic == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		m := domain.NewMedicine()
		for _, field := range []struct {
			key   string
			value string
		}{
			{domain.FieldCode, code},
			{domain.FieldGenericName, generic},
			{"brand_name", brandName},
			{"type", medType},
			{"manufacturer", manufacturer},
		} {
			if err := m.Set(field.key, field.value); err != nil {
				logger.Warn("unable to build medicine", zap.String("code", code), zap.Error(err))
			}
		}
		items = append(items, m)
	}

	if len(items) == 0 {
		return 0
	}
	if err := st.Save(items); err != nil {
		logger.Error("unable to save medicine seed", zap.Error(err))
		return 0
	}
	logger.Info("seeded medicine catalog", zap.Int("rows", len(items)), zap.String("location", st.Location()))
	return len(items)
}
