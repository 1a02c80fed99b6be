package analytics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dooto/internal/api"
	"dooto/internal/apiclient"
)

func TestSummary_DefaultsToMonth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/transactions/report" || q.Get("userId") != "5" || q.Get("range") != "MONTH" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"range":"MONTH","totalIncome":1000,"totalExpense":400,"expenseByCategory":[{"category":"Food","expense":400}]}`)
	}))
	defer srv.Close()

	res := NewService(apiclient.New(srv.URL)).Summary(context.Background(), 5, "")
	if !res.OK || len(res.Data.ExpenseByCategory) != 1 || res.Data.NetBalance != nil {
		t.Errorf("res = %+v", res)
	}
}

func TestSummary_MissingUser(t *testing.T) {
	res := NewService(apiclient.New("http://127.0.0.1:1")).Summary(context.Background(), 0, "WEEK")
	if res.OK || res.Message != api.MsgMissingUser {
		t.Errorf("res = %+v", res)
	}
}
