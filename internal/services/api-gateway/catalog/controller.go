package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reelhouse/reelhouse/internal/obs"
)

type Controller struct {
	log *zap.Logger
	uc  *Service
}

func NewController(uc *Service, log *zap.Logger) *Controller {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	return &Controller{log: log, uc: uc}
}

func (c *Controller) Register(r gin.IRouter) {
	g := r.Group("/v1/catalog")
	g.GET("/movies/popular", c.popularMovies)
	g.GET("/movies/:id", c.movieByID)
	g.GET("/shows/popular", c.popularShows)
	g.GET("/shows/:id", c.showByID)
	g.GET("/genres/movies", c.movieGenres)
	g.GET("/genres/shows", c.showGenres)
}

func (c *Controller) popularMovies(g *gin.Context) {
	page, _ := strconv.Atoi(g.DefaultQuery("page", "1"))
	out, err := c.uc.PopularMovies(g.Request.Context(), page)
	if err != nil {
		c.fail(g, "popular movies", err)
		return
	}
	g.JSON(http.StatusOK, gin.H{"results": out})
}

func (c *Controller) popularShows(g *gin.Context) {
	page, _ := strconv.Atoi(g.DefaultQuery("page", "1"))
	out, err := c.uc.PopularShows(g.Request.Context(), page)
	if err != nil {
		c.fail(g, "popular shows", err)
		return
	}
	g.JSON(http.StatusOK, gin.H{"results": out})
}

func (c *Controller) movieByID(g *gin.Context) {
	id, err := strconv.ParseInt(g.Param("id"), 10, 64)
	if err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	out, err := c.uc.MovieByID(g.Request.Context(), id)
	if err != nil {
		c.fail(g, "movie by id", err)
		return
	}
	g.JSON(http.StatusOK, out)
}

func (c *Controller) showByID(g *gin.Context) {
	id, err := strconv.ParseInt(g.Param("id"), 10, 64)
	if err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	out, err := c.uc.ShowByID(g.Request.Context(), id)
	if err != nil {
		c.fail(g, "show by id", err)
		return
	}
	g.JSON(http.StatusOK, out)
}

func (c *Controller) movieGenres(g *gin.Context) {
	out, err := c.uc.MovieGenres(g.Request.Context())
	if err != nil {
		c.fail(g, "movie genres", err)
		return
	}
	g.JSON(http.StatusOK, gin.H{"genres": out})
}

func (c *Controller) showGenres(g *gin.Context) {
	out, err := c.uc.ShowGenres(g.Request.Context())
	if err != nil {
		c.fail(g, "show genres", err)
		return
	}
	g.JSON(http.StatusOK, gin.H{"genres": out})
}

func (c *Controller) fail(g *gin.Context, op string, err error) {
	obs.WithTrace(g.Request.Context(), c.log).Error("catalog."+op, zap.Error(err))
	g.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
}
