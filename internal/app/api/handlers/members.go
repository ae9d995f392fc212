package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/internal/app/service/statistics"
	"github.com/clubhouse/membership/pkg/response"
	"github.com/clubhouse/membership/pkg/types"
)

// @Summary      Register Member (Cash)
// @Description  Records a membership paid in cash at the door. The price is taken from the pricing table.
// @Tags         Members
// @Accept       json
// @Produce      json
// @Param        request body membership.CashRegistration true "Cash registration"
// @Success      200  {object}  handlers.RespMember
// @Router       /api/members [post]
func ApiRegisterCash(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membership.CashRegistration
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		m, err := svc.RegisterCash(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(m))
	}
}

// @Summary      List Members (Admin)
// @Description  Paginated member list. filters is a JSON array of {field, operator, values}.
// @Tags         Members
// @Produce      json
// @Param        filters    query  string  false  "JSON encoded filters"
// @Param        from       query  int     false  "Offset"
// @Param        size       query  int     false  "Page size (max 500)"
// @Param        sort_by    query  string  false  "Sort column"
// @Param        sort_desc  query  bool    false  "Sort descending"
// @Success      200  {object}  handlers.RespMemberList
// @Router       /api/members [get]
func ApiListMembers(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &membership.ListRequest{SortBy: c.Query("sort_by"), SortDesc: c.Query("sort_desc") == "true"}
		var err error
		if req.From, err = queryInt(c, "from", 0); err != nil {
			writeBindError(c, err)
			return
		}
		if req.Size, err = queryInt(c, "size", 0); err != nil {
			writeBindError(c, err)
			return
		}
		if req.Filters, err = queryFilters(c); err != nil {
			writeBindError(c, err)
			return
		}
		res, err := svc.List(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Renew Membership
// @Description  Extends the membership found by email. Expiry and amount are computed server side.
// @Tags         Members
// @Accept       json
// @Produce      json
// @Param        request body membership.RenewalRequest true "Renewal"
// @Success      200  {object}  handlers.RespMember
// @Router       /api/members/renew [post]
func ApiRenew(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membership.RenewalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		m, err := svc.Renew(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(m))
	}
}

// @Summary      Verify Membership
// @Description  Reports whether an email belongs to a member and whether the membership is active.
// @Tags         Members
// @Produce      json
// @Param        email  query  string  true  "Member email"
// @Success      200  {object}  handlers.RespVerify
// @Router       /api/members/verify [get]
func ApiVerify(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Verify(c.Request.Context(), c.Query("email"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Check In
// @Description  Records attendance for a member identified by id, email or a unique name fragment.
// @Tags         Members
// @Accept       json
// @Produce      json
// @Param        request body membership.CheckInRequest true "Check-in"
// @Success      200  {object}  handlers.RespCheckIn
// @Router       /api/members/checkin [post]
func ApiCheckIn(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membership.CheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		res, err := svc.CheckIn(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Search Members
// @Description  Case-insensitive fragment search over name, email and student number.
// @Tags         Members
// @Produce      json
// @Param        query  query  string  true   "Search fragment"
// @Param        limit  query  int     false  "Max results (default 20, max 100)"
// @Success      200  {object}  handlers.RespMembers
// @Router       /api/members/search [get]
func ApiSearch(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := queryInt(c, "limit", 0)
		if err != nil {
			writeBindError(c, err)
			return
		}
		rows, err := svc.Search(c.Request.Context(), c.Query("query"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      Get Member
// @Tags         Members
// @Produce      json
// @Param        id  path  string  true  "Member id"
// @Success      200  {object}  handlers.RespMember
// @Router       /api/members/{id} [get]
func ApiGetMember(svc *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(m))
	}
}

// @Summary      Membership Statistics (Admin)
// @Description  Totals by status and type, latest payment amounts by method and check-in counts.
// @Tags         Members
// @Produce      json
// @Param        items    query  string  false  "Comma separated statistic ids; all when empty"
// @Param        filters  query  string  false  "JSON encoded filters"
// @Success      200  {object}  handlers.RespStatistic
// @Router       /api/members/statistics [get]
func ApiStatistics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := queryFilters(c)
		if err != nil {
			writeBindError(c, err)
			return
		}
		req := &statistics.StatisticRequest{Filters: filters}
		if raw := c.Query("items"); raw != "" {
			req.DataItems = lo.FilterMap(strings.Split(raw, ","), func(s string, _ int) (statistics.StatisticType, bool) {
				s = strings.TrimSpace(s)
				return statistics.StatisticType(s), s != ""
			})
		}
		res, err := svc.GetStatistic(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func queryFilters(c *gin.Context) ([]*types.CommonFilter, error) {
	raw := c.Query("filters")
	if raw == "" {
		return nil, nil
	}
	var filters []*types.CommonFilter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}
	return filters, nil
}

func RegisterMemberRoutes(r gin.IRouter, svc *membership.Service, stats *statistics.Service) {
	r.POST("", ApiRegisterCash(svc))
	r.GET("", ApiListMembers(svc))
	r.POST("/renew", ApiRenew(svc))
	r.GET("/verify", ApiVerify(svc))
	r.POST("/checkin", ApiCheckIn(svc))
	r.GET("/search", ApiSearch(svc))
	r.GET("/statistics", ApiStatistics(stats))
	r.GET("/:id", ApiGetMember(svc))
}
