package fibalive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamIndexedBody = `{
  "clock": "04:12",
  "period": 3,
  "periodType": "REGULAR",
  "inOT": 0,
  "tm": {
    "1": {
      "name": "Calgary Surge",
      "score": 61,
      "tot_sRebounds": 30,
      "tot_sFieldGoalsPercentage": 48.5,
      "pl": {
        "10": {"firstName": "Sean", "familyName": "Miller", "shirtNumber": "10", "sPoints": 4},
        "2": {"firstName": "Jay", "familyName": "Doe", "shirtNumber": "2", "sPoints": 18}
      }
    },
    "2": {
      "name": "Edmonton Stingers",
      "score": "55",
      "tot_sRebounds": 27
    }
  }
}`

func decode(t *testing.T, body string) any {
	t.Helper()
	var doc any
	require.NoError(t, sonic.UnmarshalString(body, &doc))
	return doc
}

func TestNormalize_TeamIndexed(t *testing.T) {
	t.Parallel()

	snap, ok := Normalize(decode(t, teamIndexedBody))
	require.True(t, ok)

	assert.Equal(t, livescore.ShapeTeamIndexed, snap.Shape)
	assert.Equal(t, 61, snap.TeamAScore)
	assert.Equal(t, 55, snap.TeamBScore)
	assert.Equal(t, "Calgary Surge", snap.TeamAName)
	assert.Equal(t, "04:12", snap.Clock)
	assert.Equal(t, 3, snap.Period)
	assert.Equal(t, livescore.PeriodRegular, snap.PeriodType)
	assert.False(t, snap.InOvertime)
	assert.False(t, snap.Live.Known())
	assert.Equal(t, float64(30), snap.TeamAStats["tot_sRebounds"])

	require.Len(t, snap.TeamARoster, 2)
	assert.Equal(t, "Jay Doe", snap.TeamARoster[0].Name)
	assert.Equal(t, "10", snap.TeamARoster[1].Number)
	assert.Equal(t, float64(18), snap.TeamARoster[0].Stats["sPoints"])
}

func TestNormalize_FlatTeam(t *testing.T) {
	t.Parallel()

	body := `[{"team1_name":"Calgary Surge","team1_score":null,"team1_assists":12,
	  "team2_name":"Edmonton Stingers","team2_score":"abc","clock":"00:00","period":4,"live":1}]`

	snap, ok := Normalize(decode(t, body))
	require.True(t, ok)

	assert.Equal(t, livescore.ShapeFlatTeam, snap.Shape)
	assert.Equal(t, 0, snap.TeamAScore)
	assert.Equal(t, 0, snap.TeamBScore)
	assert.Equal(t, "Edmonton Stingers", snap.TeamBName)
	assert.Equal(t, float64(12), snap.TeamAStats["assists"])
	assert.True(t, snap.Live.IsTrue())
	assert.Equal(t, 4, snap.Period)
}

func TestNormalize_EmbeddedFixture(t *testing.T) {
	t.Parallel()

	body := `[
	  {"homename":"Calgary Surge","awayname":"Edmonton Stingers","homescore":80,"awayscore":77,"matchStatus":"COMPLETE","period":4,"clock":"00:00"},
	  {"homename":"Niagara River Lions","awayname":"Brampton Honey Badgers","homescore":40,"awayscore":38,"matchStatus":"IN_PROGRESS","period":2}
	]`

	snap, ok := Normalize(decode(t, body))
	require.True(t, ok)

	assert.Equal(t, livescore.ShapeEmbeddedFixture, snap.Shape)
	assert.Equal(t, 80, snap.TeamAScore)
	assert.True(t, snap.Live.IsFalse())
	require.Len(t, snap.OtherMatches, 1)
	assert.Equal(t, "Niagara River Lions", snap.OtherMatches[0].HomeName)
	assert.Equal(t, 2, snap.OtherMatches[0].Period)
}

func TestNormalize_UnknownShapeFallsBackToZeroedSnapshot(t *testing.T) {
	t.Parallel()

	snap, ok := Normalize(decode(t, `{"banner":"coming soon"}`))
	require.True(t, ok)
	assert.Equal(t, livescore.ShapeUnknown, snap.Shape)
	assert.Equal(t, 0, snap.Period)
	assert.False(t, snap.Live.Known())

	_, ok = Normalize(decode(t, `[]`))
	assert.False(t, ok)
}

func TestFetchSnapshot_ParsesJSONServedAsHTML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/data/2512345/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(teamIndexedBody))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		URLTemplate: server.URL + "/data/{match_id}/data.json",
		Timeout:     2 * time.Second,
	})

	snap, ok := client.FetchSnapshot(context.Background(), "2512345")
	require.True(t, ok)
	assert.Equal(t, 61, snap.TeamAScore)

	_, ok = client.FetchSnapshot(context.Background(), "999")
	assert.False(t, ok, "non-200 must be absent")
}

func TestFetchSnapshot_MalformedBodyIsAbsent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{URLTemplate: server.URL + "/{match_id}", Timeout: time.Second})
	_, ok := client.FetchSnapshot(context.Background(), "1")
	assert.False(t, ok)

	_, ok = client.FetchSnapshot(context.Background(), "  ")
	assert.False(t, ok)
}

func TestMatchURL(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{})
	want := "https://fibalivestats.dcd.shared.geniussports.com/data/42/data.json"
	if got := client.MatchURL("42"); got != want {
		t.Fatalf("unexpected url: got=%s want=%s", got, want)
	}

	legacy := NewClient(ClientConfig{URLTemplate: "https://fibalivestats.dcd.shared.geniussports.com/data/competition/"})
	if got := legacy.MatchURL("37308"); got != "https://fibalivestats.dcd.shared.geniussports.com/data/competition/37308.json" {
		t.Fatalf("unexpected legacy url: %s", got)
	}
}
