/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"

	model2 "github.com/fantasyee/fantasyee/api/model"
	"github.com/fantasyee/fantasyee/model"
	"github.com/gin-gonic/gin"
)

func (a Api) GetAddresses(list model.AddressListName) gin.HandlerFunc {
	return func(c *gin.Context) {
		addresses, err := a.fantasyee.GetAddresses(c.Request.Context(), list)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"list": list, "addresses": addresses})
	}
}

func (a Api) AddAddress(list model.AddressListName) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model2.AddressEntry
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}
		if err := req.ValidateAddressEntry(); err != nil {
			invalidInput(c, err)
			return
		}
		if err := a.fantasyee.AddAddress(c.Request.Context(), list, req.Address); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"list": list, "address": req.Address})
	}
}

func (a Api) RemoveAddress(list model.AddressListName) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model2.AddressEntry
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}
		if err := req.ValidateAddressEntry(); err != nil {
			invalidInput(c, err)
			return
		}
		if err := a.fantasyee.RemoveAddress(c.Request.Context(), list, req.Address); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
