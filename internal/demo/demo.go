// Package demo generates a consistent synthetic set of the four tables for
// seeding ssotapi and exercising follow mode.
package demo

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"ssot/internal/export"
	"ssot/internal/model"
	"ssot/internal/store"
)

var (
	agencies = map[string][]string{
		"Mindshare": {"Acme Foods", "Northwind", "Globex"},
		"Wavemaker": {"Initech", "Umbrella Health"},
		"Essence":   {"Hooli", "Stark Mobile", "Wayne Travel"},
		"OMD":       {"Soylent", "Cyberdyne"},
	}
	agencyOrder = []string{"Mindshare", "Wavemaker", "Essence", "OMD"}
	tactics     = []string{"Prospecting", "Retargeting", "Contextual", "CTV", "Audio"}
	buyModels   = []string{"CPM", "vCPM", "CPC", "Flat"}
	safety      = []string{"IAS", "DoubleVerify", "None"}
	bls         = []string{"Nielsen", "Kantar", "Lucid", ""}
	sites       = []string{"youtube.com", "nytimes.com", "hulu.com", "spotify.com", "espn.com", "weather.com"}
	statuses    = []string{"draft", "live", "paused", "complete"}
	seasons     = []string{"Spring", "Summer", "Fall", "Holiday"}
)

// Columns of each generated table, in order.
var (
	TargetingColumns = []string{
		"AGENCY_NAME", "ADVERTISER_NAME", "CAMPAIGN_ID", "CAMPAIGN_NAME",
		"RADIA_OR_PRISMA_PACKAGE_NAME", "PLACEMENTNAME", "TACTIC", "BUY_MODEL",
		"BRAND_SAFETY", "BLS_MEASUREMENT", "LIVE_DATE", "STATUS",
	}
	CampaignColumns = []string{
		"RADIA_ID", "CAMPAIGN_ID", "CAMPAIGN_NAME", "ADVERTISER_NAME", "START_DATE", "END_DATE", "STATUS",
	}
	MediaPlanColumns = []string{
		"CLIENT", "PRODUCT", "CAMPAIGN_ID", "CAMPAIGN_NAME", "PACKAGE", "PLACMENT",
		"FLIGHT", "TOTAL_BUDGET", "IMPRESSIONS", "STATUS", "NOTES",
	}
	RadiaPlanColumns = []string{
		"AGENCY_NAME", "ADVERTISER_NAME", "CAMPAIGN_ID", "PACKAGE_NAME", "SITE", "COST_METHOD", "RATE", "UNITS",
	}
)

type campaign struct {
	agency, advertiser, id, name, radiaID string
	start                                 time.Time
}

type pkg struct {
	c                                    *campaign
	name, tactic, buy, safety, bls, live string
	placements                           int
}

// Generator produces rows deterministically from its seed.
type Generator struct {
	rnd       *rand.Rand
	base      time.Time
	campaigns []*campaign
	packages  []*pkg
}

func New(seed int64) *Generator {
	return &Generator{
		rnd:  rand.New(rand.NewSource(seed)),
		base: time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
	}
}

func (g *Generator) pick(arr []string) string { return arr[g.rnd.Intn(len(arr))] }

func (g *Generator) randInt(min, max int) int { return g.rnd.Intn(max-min+1) + min }

func (g *Generator) newCampaign() *campaign {
	n := len(g.campaigns) + 1
	ag := agencyOrder[g.rnd.Intn(len(agencyOrder))]
	adv := g.pick(agencies[ag])
	c := &campaign{
		agency:     ag,
		advertiser: adv,
		id:         fmt.Sprintf("C-%04d", n),
		name:       fmt.Sprintf("%s %s %d", adv, g.pick(seasons), 2025+g.rnd.Intn(2)),
		radiaID:    fmt.Sprintf("R%06d", 100000+n*37),
		start:      g.base.AddDate(0, 0, 7*g.rnd.Intn(40)),
	}
	g.campaigns = append(g.campaigns, c)
	return c
}

func (g *Generator) newPackage(c *campaign) *pkg {
	p := &pkg{
		c:      c,
		name:   fmt.Sprintf("PKG_%s_%04d", c.id, len(g.packages)+1),
		tactic: g.pick(tactics),
		buy:    g.pick(buyModels),
		safety: g.pick(safety),
		bls:    g.pick(bls),
		live:   c.start.AddDate(0, 0, g.randInt(0, 14)).Format("2006-01-02"),
	}
	g.packages = append(g.packages, p)
	return p
}

// TargetingRow returns the next targeting row. Rows of one package share
// the package-level columns; each row is a new placement.
func (g *Generator) TargetingRow() model.Record {
	var p *pkg
	switch {
	case len(g.packages) == 0 || g.rnd.Intn(4) == 0:
		var c *campaign
		if len(g.campaigns) == 0 || g.rnd.Intn(3) == 0 {
			c = g.newCampaign()
		} else {
			c = g.campaigns[g.rnd.Intn(len(g.campaigns))]
		}
		p = g.newPackage(c)
	default:
		p = g.packages[g.rnd.Intn(len(g.packages))]
	}
	p.placements++
	c := p.c
	return model.NewRecord(TargetingColumns, []string{
		c.agency, c.advertiser, c.id, c.name,
		p.name, fmt.Sprintf("%s_PL%03d_%s", p.name, p.placements, g.pick(sites)),
		p.tactic, p.buy, p.safety, p.bls, p.live, g.pick(statuses),
	})
}

// Tables generates n targeting rows and the campaign, media plan and radia
// plan tables derived from the same campaigns and packages.
func (g *Generator) Tables(n int) map[model.ResourceType]model.Dataset {
	targeting := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		targeting = append(targeting, g.TargetingRow())
	}

	camps := make([]model.Record, 0, len(g.campaigns))
	for _, c := range g.campaigns {
		end := c.start.AddDate(0, 0, 7*g.randInt(2, 12))
		camps = append(camps, model.NewRecord(CampaignColumns, []string{
			c.radiaID, c.id, c.name, c.advertiser,
			c.start.Format("2006-01-02"), end.Format("2006-01-02"), g.pick(statuses),
		}))
	}

	var media, radia []model.Record
	for _, r := range targeting {
		c := g.campaignByID(r.Get("CAMPAIGN_ID"))
		budget := g.randInt(5, 400) * 250
		media = append(media, model.NewRecord(MediaPlanColumns, []string{
			c.agency, c.advertiser, c.id, c.name,
			r.Get("RADIA_OR_PRISMA_PACKAGE_NAME"), r.Get("PLACEMENTNAME"),
			c.start.Format("Jan 2") + " - " + c.start.AddDate(0, 1, 0).Format("Jan 2"),
			fmt.Sprintf("%d", budget), fmt.Sprintf("%d", budget*g.randInt(80, 400)),
			r.Get("STATUS"), "",
		}))
	}
	for _, p := range g.packages {
		for _, site := range []string{g.pick(sites), g.pick(sites)} {
			radia = append(radia, model.NewRecord(RadiaPlanColumns, []string{
				p.c.agency, p.c.advertiser, p.c.id, p.name, site, p.buy,
				fmt.Sprintf("%.2f", float64(g.randInt(150, 4500))/100), fmt.Sprintf("%d", g.randInt(1, 50)*1000),
			}))
		}
	}

	return map[model.ResourceType]model.Dataset{
		model.ResourceTargeting: model.NewDataset(targeting),
		model.ResourceCampaign:  model.NewDataset(camps),
		model.ResourceMediaPlan: model.NewDataset(media),
		model.ResourceRadiaPlan: model.NewDataset(radia),
	}
}

func (g *Generator) campaignByID(id string) *campaign {
	for _, c := range g.campaigns {
		if c.id == id {
			return c
		}
	}
	return nil
}

// Columns returns the generated column list of rt.
func Columns(rt model.ResourceType) []string {
	switch rt {
	case model.ResourceTargeting:
		return TargetingColumns
	case model.ResourceCampaign:
		return CampaignColumns
	case model.ResourceMediaPlan:
		return MediaPlanColumns
	case model.ResourceRadiaPlan:
		return RadiaPlanColumns
	}
	return nil
}

// WriteDir generates n targeting rows and writes every table as
// <dir>/<resource>.csv. Existing files are kept unless overwrite is set.
// It returns the paths it wrote.
func (g *Generator) WriteDir(dir string, n int, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tables := g.Tables(n)
	var wrote []string
	for _, rt := range model.AllResources() {
		p := store.Path(dir, rt)
		if _, err := os.Stat(p); err == nil && !overwrite {
			continue
		}
		if err := writeTable(p, tables[rt], Columns(rt)); err != nil {
			return wrote, fmt.Errorf("write %s: %w", p, err)
		}
		wrote = append(wrote, p)
	}
	return wrote, nil
}

func writeTable(path string, ds model.Dataset, cols []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, ds, cols, ','); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
