package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryTeam(t *testing.T) {
	s := SeasonRecord{Teams: []TeamStint{{Team: "LV", GamesStarted: 5}, {Team: "LAR", GamesStarted: 7}}}
	assert.Equal(t, "LAR", s.PrimaryTeam())
	assert.Equal(t, "", SeasonRecord{}.PrimaryTeam())
}

func TestPlayoffGames(t *testing.T) {
	var p *PlayoffRecord
	assert.Equal(t, 0, p.Games())
	assert.Equal(t, 4, (&PlayoffRecord{Wins: 3, Losses: 1}).Games())
}

func TestHasPassingData(t *testing.T) {
	assert.True(t, SeasonRecord{Attempts: 10, GamesStarted: 1, PassingYards: 80}.HasPassingData())
	assert.False(t, SeasonRecord{Attempts: 0, GamesStarted: 1, PassingYards: 80}.HasPassingData())
	assert.False(t, SeasonRecord{Attempts: 10, GamesStarted: 0, PassingYards: 80}.HasPassingData())
	assert.False(t, SeasonRecord{Attempts: 10, GamesStarted: 1}.HasPassingData())
}

func TestExperience(t *testing.T) {
	p := Player{Seasons: []SeasonRecord{
		{Year: 2023, GamesStarted: 4},
		{Year: 2024, GamesStarted: 17},
	}}
	assert.Equal(t, 1, p.Experience(2023))
	assert.Equal(t, 2, p.Experience(2024))

	p.FirstSeason = 2018
	assert.Equal(t, 7, p.Experience(2024))
	assert.Equal(t, 0, p.Experience(2017))

	tests := []struct {
		name    string
		seasons []SeasonRecord
		year    int
		want    int
	}{
		{
			name: "former backup with attempts but no starts",
			seasons: []SeasonRecord{
				{Year: 2022, Attempts: 20, PassingYards: 150},
				{Year: 2023, Attempts: 30, PassingYards: 200},
				{Year: 2024, GamesStarted: 17, Attempts: 550},
			},
			year: 2024,
			want: 3,
		},
		{
			name: "inactive rows do not count",
			seasons: []SeasonRecord{
				{Year: 2023},
				{Year: 2024, GamesStarted: 17, Attempts: 550},
			},
			year: 2024,
			want: 1,
		},
		{
			name: "later seasons ignored",
			seasons: []SeasonRecord{
				{Year: 2023, Attempts: 12},
				{Year: 2024, GamesStarted: 17, Attempts: 550},
			},
			year: 2023,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Player{Seasons: tt.seasons}.Experience(tt.year))
		})
	}
}

func TestSortSeasons(t *testing.T) {
	p := Player{Seasons: []SeasonRecord{{Year: 2024}, {Year: 2022}, {Year: 2023}}}
	p.SortSeasons()
	assert.Equal(t, []int{2022, 2023, 2024}, []int{p.Seasons[0].Year, p.Seasons[1].Year, p.Seasons[2].Year})

	s, ok := p.Season(2023)
	assert.True(t, ok)
	assert.Equal(t, 2023, s.Year)
	_, ok = p.Season(2019)
	assert.False(t, ok)
	assert.Len(t, p.SeasonMap(), 3)
}
