package audit

import (
	"testing"

	"github.com/lootopgf/lootery-go/internal/lottery"
)

func TestAuditedEventTypesCoversSettlementAndClaims(t *testing.T) {
	want := []string{
		lottery.EventGameFinalised,
		lottery.EventJackpotRollover,
		lottery.EventDrawSkipped,
		lottery.EventWinningsClaimed,
		lottery.EventConsolationClaim,
	}
	for _, typ := range want {
		if !auditedEventTypes[typ] {
			t.Errorf("expected %q to be audited", typ)
		}
	}
}

func TestAuditedEventTypesExcludesHighVolumeEvents(t *testing.T) {
	skip := []string{lottery.EventTicketPurchased, lottery.EventJackpotSeeded}
	for _, typ := range skip {
		if auditedEventTypes[typ] {
			t.Errorf("did not expect %q to be audited", typ)
		}
	}
}
