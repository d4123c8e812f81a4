package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
)

const (
	itemTypeGame = 0
	itemTypeDLC  = 4
)

// parseAppInfo decodes an appinfo feed into appid-keyed updates. Items
// without a name or appid are skipped, and only the first occurrence of an
// appid within one file is kept.
func parseAppInfo(raw []byte) ([]*models.AppInfoUpdate, error) {
	seen := make(map[int64]bool)
	var updates []*models.AppInfoUpdate

	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var resp stores.SteamResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("decode appinfo line: %w", err)
		}

		for _, item := range resp.StoreItems {
			if item.Name == nil || item.AppID == nil {
				continue
			}
			if seen[*item.AppID] {
				continue
			}
			seen[*item.AppID] = true

			updates = append(updates, updateFromItem(item))
		}
	}
	return updates, nil
}

func updateFromItem(item stores.SteamStoreItem) *models.AppInfoUpdate {
	update := &models.AppInfoUpdate{
		AppID: *item.AppID,
		Tags:  item.TagIDs,
	}

	if item.Type != nil && *item.Type == itemTypeDLC {
		update.IsDLC = true
	}

	if cats := item.Categories; cats != nil {
		update.CategoriesPlayer = cats.SupportedPlayerCategoryIDs
		update.CategoriesController = cats.ControllerCategoryIDs
		update.CategoriesFeatures = cats.FeatureCategoryIDs
	}

	if item.Reviews != nil && item.Reviews.SummaryFiltered != nil {
		update.ReviewCount = item.Reviews.SummaryFiltered.ReviewCount
		update.ReviewPctPositive = item.Reviews.SummaryFiltered.PercentPositive
	}

	if info := item.BasicInfo; info != nil {
		if info.ShortDescription != nil {
			update.ShortDesc = *info.ShortDescription
		}
		update.Publishers = joinCredits(info.Publishers)
		update.Developers = joinCredits(info.Developers)
		update.Franchises = joinCredits(info.Franchises)
	}

	if item.Release != nil {
		update.ReleaseDate = item.Release.SteamReleaseDate
	}

	if platforms := item.Platforms; platforms != nil {
		if platforms.Windows != nil {
			update.Windows = *platforms.Windows
		}
		if platforms.Mac != nil {
			update.Mac = *platforms.Mac
		}
		if platforms.Linux != nil {
			update.Linux = *platforms.Linux
		}
		update.SteamDeckCompat = platforms.SteamDeckCompatCategory
	}

	return update
}

func joinCredits(credits []stores.SteamCredit) string {
	names := make([]string, 0, len(credits))
	for _, credit := range credits {
		if credit.Name != nil {
			names = append(names, *credit.Name)
		} else {
			names = append(names, "")
		}
	}
	return strings.Join(names, ",")
}
