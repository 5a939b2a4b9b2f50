// Package api provides AIStore API over HTTP(S) for the dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"

	"github.com/tinylib/msgp/msgp"
)

const (
	httpMaxRetries = 5
	httpRetrySleep = 100 * time.Millisecond

	msgpBufSize = 16 * cos.KiB
)

type (
	BaseParams struct {
		Client *http.Client
		Ctx    context.Context // optional; cancels in-flight requests and retries
		URL    string
		Method string
		Token  string
	}

	// ReqParams is used in constructing client-side API requests to the AIStore.
	// Stores Query and Headers for providing arguments that are not used commonly in API requests
	ReqParams struct {
		BaseParams BaseParams
		Path       string
		Body       []byte
		Query      url.Values
		Header     http.Header
	}
)

// HTTPStatus returns HTTP status or (-1) for non-HTTP error.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if herr := cmn.Err2HTTPErr(err); herr != nil {
		return herr.Status
	}
	return -1 // invalid
}

func SetAuthToken(r *http.Request, token string) {
	if token != "" {
		r.Header.Set(apc.HdrAuthorization, apc.AuthenticationTypeBearer+" "+token)
	}
}

///////////////
// ReqParams //
///////////////

var (
	reqParamPool sync.Pool
	reqParams0   ReqParams
)

func AllocRp() *ReqParams {
	if v := reqParamPool.Get(); v != nil {
		return v.(*ReqParams)
	}
	return &ReqParams{}
}

func FreeRp(reqParams *ReqParams) {
	*reqParams = reqParams0
	reqParamPool.Put(reqParams)
}

// DoRequest makes the request and, if successful, drains and closes the response body
func (reqParams *ReqParams) DoRequest() error {
	resp, err := reqParams.do()
	if err != nil {
		return err
	}
	cos.DrainReader(resp.Body)
	resp.Body.Close()
	return nil
}

// DoReqAny makes the request and decodes the response into `v`:
// io.Writer (copy), *[]byte, msgp.Decodable (when the server replies with
// msgpack), or anything else (JSON). Returns the number of bytes copied (io.Writer only).
func (reqParams *ReqParams) DoReqAny(v any) (int64, error) {
	resp, err := reqParams.do()
	if err != nil {
		return 0, err
	}
	n, err := reqParams.readAny(resp, v)
	cos.DrainReader(resp.Body)
	resp.Body.Close()
	return n, err
}

// doReader returns response body for subsequent reading (the caller must close it)
func (reqParams *ReqParams) doReader() (io.ReadCloser, int64, error) {
	resp, err := reqParams.do()
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// makes HTTP request, retries on connection-refused, reset, and 503 errors;
// returns *cmn.ErrHTTP when the final response status is >= 400
func (reqParams *ReqParams) do() (resp *http.Response, err error) {
	var (
		bp  = &reqParams.BaseParams
		ctx = bp.Ctx
	)
	if ctx == nil {
		ctx = context.Background()
	}
	urlPath := bp.URL + reqParams.Path
	call := func() (int, error) {
		var reqBody io.Reader
		if reqParams.Body != nil {
			reqBody = bytes.NewReader(reqParams.Body)
		}
		req, errN := http.NewRequestWithContext(ctx, bp.Method, urlPath, reqBody)
		if errN != nil {
			return 0, cmn.NewErrHTTP(nil, "failed to create http request: "+errN.Error(), http.StatusBadRequest)
		}
		reqParams.setRequestOptParams(req)
		SetAuthToken(req, bp.Token)

		r, errD := bp.Client.Do(req) //nolint:bodyclose // closed by a caller
		if errD != nil {
			return 0, errD
		}
		if errC := reqParams.checkResp(r); errC != nil {
			cos.DrainReader(r.Body)
			r.Body.Close()
			return r.StatusCode, errC
		}
		resp = r
		return r.StatusCode, nil
	}
	err = cmn.NetworkCallWithRetry(&cmn.RetryArgs{
		Call:      call,
		IsFatal:   isFatal,
		Action:    bp.Method + " " + reqParams.Path,
		Verbosity: cmn.RetryLogOff,
		SoftErr:   httpMaxRetries,
		Sleep:     httpRetrySleep,
		BackOff:   true,
		IsClient:  true,
	})
	if err != nil {
		if herr := cmn.Err2HTTPErr(err); herr != nil {
			return nil, herr
		}
	}
	return resp, err
}

// any HTTP error other than "service unavailable" is final
func isFatal(err error) bool {
	herr := cmn.Err2HTTPErr(err)
	return herr != nil && herr.Status != http.StatusServiceUnavailable
}

// setRequestOptParams given an existing HTTP Request and optional API parameters,
// sets the optional fields of the request if provided.
func (reqParams *ReqParams) setRequestOptParams(req *http.Request) {
	if len(reqParams.Query) != 0 {
		req.URL.RawQuery = reqParams.Query.Encode()
	}
	for k, vs := range reqParams.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

func (reqParams *ReqParams) readAny(resp *http.Response, v any) (n int64, err error) {
	switch t := v.(type) {
	case nil:
	case io.Writer:
		n, err = io.Copy(t, resp.Body)
	case *[]byte:
		*t, err = io.ReadAll(resp.Body)
		n = int64(len(*t))
	case msgp.Decodable:
		if resp.Header.Get(cos.HdrContentType) == cos.ContentMsgPack {
			err = t.DecodeMsg(msgp.NewReaderSize(resp.Body, msgpBufSize))
		} else {
			err = cos.JSON.NewDecoder(resp.Body).Decode(v)
		}
	default:
		err = cos.JSON.NewDecoder(resp.Body).Decode(v)
	}
	if err != nil {
		err = fmt.Errorf("failed to read response (%s %s): %w", reqParams.BaseParams.Method, reqParams.Path, err)
	}
	return n, err
}

func (reqParams *ReqParams) checkResp(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	bp := &reqParams.BaseParams
	if bp.Method == http.MethodHead {
		if msg := resp.Header.Get(apc.HdrError); msg != "" {
			herr := cmn.NewErrHTTP(nil, msg, resp.StatusCode)
			herr.Method, herr.URLPath = bp.Method, reqParams.Path
			return herr
		}
	}
	var (
		herr   *cmn.ErrHTTP
		msg, _ = io.ReadAll(io.LimitReader(resp.Body, 64*cos.KiB))
	)
	if bp.Method != http.MethodHead && resp.StatusCode != http.StatusServiceUnavailable {
		if errJ := cos.JSON.Unmarshal(msg, &herr); errJ == nil && herr != nil && herr.Message != "" {
			if herr.Status == 0 {
				herr.Status = resp.StatusCode
			}
			return herr
		}
	}
	strMsg := string(bytes.TrimSpace(msg))
	if strMsg == "" {
		strMsg = http.StatusText(resp.StatusCode)
		if resp.StatusCode == http.StatusServiceUnavailable {
			strMsg = "[" + strMsg + "]: starting up, please try again later..."
		}
	}
	herr = cmn.NewErrHTTP(nil, strMsg, resp.StatusCode)
	herr.Method, herr.URLPath = bp.Method, reqParams.Path
	return herr
}
