package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flyerkit/backend/internal/domain"
)

const campaignColumns = `id, name, validity_text, theme_color_hex, theme_hero_path, theme_bg_path, created_at, updated_at`

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.ValidityText, &c.Theme.ColorHex, &c.Theme.HeroPath, &c.Theme.BackgroundPath, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCampaign inserts the campaign and all of its items in one transaction.
// Every item must reference an existing product through ProductID.
func (s *Store) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO campaigns (name, validity_text, theme_color_hex, theme_hero_path, theme_bg_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		campaign.Name, campaign.ValidityText, campaign.Theme.ColorHex, campaign.Theme.HeroPath, campaign.Theme.BackgroundPath, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	campaignID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read campaign id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO campaign_items (campaign_id, product_id, variant_label, price, sort_order) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i := range campaign.Items {
		item := &campaign.Items[i]
		res, err := stmt.ExecContext(ctx, campaignID, item.ProductID, item.VariantLabel, item.Price.String(), item.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to insert campaign item %d: %w", i, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read campaign item id: %w", err)
		}
		item.CampaignID = campaignID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign: %w", err)
	}

	campaign.ID = campaignID
	campaign.CreatedAt = ts
	campaign.UpdatedAt = ts
	return nil
}

// GetCampaign returns a campaign with its items in display order and their products joined
func (s *Store) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	campaign, err := scanCampaign(s.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.id, ci.campaign_id, ci.product_id, ci.variant_label, ci.price, ci.sort_order,
		        p.id, p.name, p.image_path, p.created_at, p.updated_at
		 FROM campaign_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.campaign_id = ?
		 ORDER BY ci.sort_order, ci.id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign items: %w", err)
	}
	defer rows.Close()

	campaign.Items = []domain.CampaignItem{}
	for rows.Next() {
		var item domain.CampaignItem
		var product domain.Product
		err := rows.Scan(&item.ID, &item.CampaignID, &item.ProductID, &item.VariantLabel, &item.Price, &item.SortOrder,
			&product.ID, &product.Name, &product.ImagePath, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign item: %w", err)
		}
		item.Product = &product
		campaign.Items = append(campaign.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaign items: %w", err)
	}

	return campaign, nil
}

// ListCampaigns returns campaigns newest first, without their items
func (s *Store) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// DeleteCampaign removes a campaign; its items go with it
func (s *Store) DeleteCampaign(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}
