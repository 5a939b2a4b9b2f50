// Package api_test: unit tests
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/tools/aisfake"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const bucket = "imagenet"

var bck = cmn.Bck{Name: bucket, Provider: apc.AIS}

func signToken(exp time.Time) string {
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "guest", "exp": exp.Unix()})
	s, err := tk.SignedString([]byte("secret"))
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("API", func() {
	var (
		cluster *aisfake.Cluster
		bp      api.BaseParams
	)

	BeforeEach(func() {
		cluster = aisfake.NewCluster(3)
		bp = api.BaseParams{Client: cmn.NewClient(cmn.TransportArgs{Timeout: 10 * time.Second}), URL: cluster.URL()}
		for i := range 25 {
			cluster.Put(bucket, fmt.Sprintf("train-%02d.tar", i), []byte(fmt.Sprintf("shard %d", i)))
		}
		for i := range 5 {
			cluster.Put(bucket, fmt.Sprintf("val/%02d.tar", i), []byte("validation"))
		}
	})

	AfterEach(func() {
		cluster.Close()
	})

	Describe("GetObject", func() {
		It("should copy object into writer", func() {
			var buf bytes.Buffer
			n, err := api.GetObject(bp, bck, "train-07.tar", &api.GetArgs{Writer: &buf})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("shard 7"))
			Expect(n).To(BeEquivalentTo(len("shard 7")))
		})

		It("should read objects with slashes in their names", func() {
			r, _, err := api.GetObjectReader(bp, bck, "val/03.tar", nil)
			Expect(err).NotTo(HaveOccurred())
			defer r.Close()
			b, err := io.ReadAll(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(Equal("validation"))
		})

		It("should transform objects with ETL", func() {
			cluster.AddETL("upper", func(b []byte) ([]byte, error) { return bytes.ToUpper(b), nil })
			var buf bytes.Buffer
			_, err := api.GetObject(bp, bck, "train-01.tar", &api.GetArgs{Writer: &buf, ETLName: "upper"})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("SHARD 1"))

			_, err = api.GetObject(bp, bck, "train-01.tar", &api.GetArgs{ETLName: "missing"})
			Expect(api.HTTPStatus(err)).To(Equal(http.StatusNotFound))
		})

		It("should fail without retrying on not-found", func() {
			_, err := api.GetObject(bp, bck, "nope.tar", nil)
			Expect(err).To(HaveOccurred())
			Expect(api.HTTPStatus(err)).To(Equal(http.StatusNotFound))
			Expect(cmn.IsStatusNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("nope.tar"))
			Expect(cluster.Requests(aisfake.ProxyID)).To(Equal(1))
		})

		It("should retry on service unavailable", func() {
			cluster.FailNext(2)
			var buf bytes.Buffer
			_, err := api.GetObject(bp, bck, "train-02.tar", &api.GetArgs{Writer: &buf})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("shard 2"))
			Expect(cluster.Requests(aisfake.ProxyID)).To(Equal(3))
		})

		It("should give up after too many retries", func() {
			cluster.FailNext(100)
			_, err := api.GetObject(bp, bck, "train-02.tar", nil)
			Expect(api.HTTPStatus(err)).To(Equal(http.StatusServiceUnavailable))
		})

		It("should stop on canceled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			bp.Ctx = ctx
			_, err := api.GetObject(bp, bck, "train-02.tar", nil)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(api.HTTPStatus(err)).To(Equal(-1))
		})
	})

	Describe("ListObjects", func() {
		BeforeEach(func() {
			cluster.SetPageSize(10)
		})

		It("should list all pages", func() {
			var pages int
			lst, err := api.ListObjects(bp, bck, &apc.LsoMsg{Prefix: "train-"}, api.ListArgs{Callback: func(int) { pages++ }})
			Expect(err).NotTo(HaveOccurred())
			Expect(lst.Entries).To(HaveLen(25))
			Expect(pages).To(Equal(3))
			names := lst.Entries.Names()
			Expect(names[0]).To(Equal("train-00.tar"))
			Expect(names[24]).To(Equal("train-24.tar"))
			Expect(lst.Entries[0].IsPresent()).To(BeTrue())
			Expect(lst.Entries[0].Size).To(BeEquivalentTo(len("shard 0")))
		})

		It("should list up to the limit", func() {
			lst, err := api.ListObjects(bp, bck, nil, api.ListArgs{Num: 12})
			Expect(err).NotTo(HaveOccurred())
			Expect(lst.Entries).To(HaveLen(12))
		})

		It("should list page by page", func() {
			var (
				lsmsg = &apc.LsoMsg{}
				total int
			)
			for i := 0; ; i++ {
				page, err := api.ListObjectsPage(bp, bck, lsmsg)
				Expect(err).NotTo(HaveOccurred())
				total += len(page.Entries)
				if lsmsg.ContinuationToken == "" {
					break
				}
				Expect(i).To(BeNumerically("<", 10))
			}
			Expect(total).To(Equal(30))
		})

		It("should fail on missing bucket", func() {
			_, err := api.ListObjects(bp, cmn.Bck{Name: "nope"}, nil, api.ListArgs{})
			Expect(api.HTTPStatus(err)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Cluster", func() {
		It("should be healthy", func() {
			Expect(api.Health(bp)).To(Succeed())
		})

		It("should read object from the HRW target", func() {
			smap, err := api.GetClusterMap(bp)
			Expect(err).NotTo(HaveOccurred())
			Expect(smap.CountTargets()).To(Equal(3))
			Expect(smap.Primary.ID()).To(Equal(aisfake.ProxyID))

			objName := "train-11.tar"
			tsi, err := smap.HrwName2T(bck.MakeUname(objName))
			Expect(err).NotTo(HaveOccurred())

			tbp, err := api.HrwParams(bp, smap, bck, objName)
			Expect(err).NotTo(HaveOccurred())
			Expect(tbp.URL).To(Equal(tsi.DataURL()))

			var buf bytes.Buffer
			_, err = api.GetObject(tbp, bck, objName, &api.GetArgs{Writer: &buf})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("shard 11"))
			Expect(cluster.Requests(tsi.ID())).To(Equal(1))
		})
	})

	Describe("Authentication", func() {
		It("should send bearer token", func() {
			token := signToken(time.Now().Add(time.Hour))
			cluster.RequireToken(token)

			_, err := api.GetObject(bp, bck, "train-00.tar", nil)
			Expect(api.HTTPStatus(err)).To(Equal(http.StatusUnauthorized))

			bp.Token = token
			_, err = api.GetObject(bp, bck, "train-00.tar", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should load token from file", func() {
			var (
				dir   = GinkgoT().TempDir()
				token = signToken(time.Now().Add(time.Hour))
				raw   = filepath.Join(dir, "raw")
				js    = filepath.Join(dir, "auth.token")
			)
			Expect(os.WriteFile(raw, []byte(token+"\n"), 0o600)).To(Succeed())
			Expect(os.WriteFile(js, []byte(`{"token": "`+token+`"}`), 0o600)).To(Succeed())

			for _, path := range []string{raw, js} {
				s, err := api.LoadToken(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(s).To(Equal(token))
			}
			_, err := api.LoadToken(filepath.Join(dir, "none"))
			Expect(err).To(HaveOccurred())
		})

		It("should detect expired token", func() {
			Expect(api.TokenExpired(signToken(time.Now().Add(time.Hour)))).To(Succeed())

			err := api.TokenExpired(signToken(time.Now().Add(-time.Hour)))
			Expect(errors.Is(err, api.ErrTokenExpired)).To(BeTrue())

			Expect(api.TokenExpired("not-a-token")).NotTo(Succeed())
		})

		It("should refuse expired token from config", func() {
			config := cmn.DefaultConfig()
			config.Endpoint = cluster.URL()
			config.AuthToken = signToken(time.Now().Add(-time.Minute))
			_, err := api.NewBaseParams(http.DefaultClient, config)
			Expect(errors.Is(err, api.ErrTokenExpired)).To(BeTrue())

			config.AuthToken = "opaque"
			nbp, err := api.NewBaseParams(http.DefaultClient, config)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.TrimSpace(nbp.Token)).To(Equal("opaque"))
		})
	})
})
